// Package main implements shardqlctl, shardql's thin operator CLI,
// reproducing the shape of the teacher's own cmd/cli: one urfave/cli
// (v1) app with a handful of subcommands, fatih/color for terminal
// output. Conventional glue, not part of the query-execution core.
/*
 * Copyright (c) 2024, shardql authors.
 */
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/shardql/shardql/batch"
)

// schemaFieldConfig is the on-disk, human-editable form of a batch.Field:
// type names instead of batch.DataType's raw uint8, so operators don't
// need to know the wire encoding to hand-write a schema file.
type schemaFieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// schemaFile is the top-level shape of a --schema YAML file: one field
// list per table name.
type schemaFile map[string][]schemaFieldConfig

func parseDataType(name string) (batch.DataType, error) {
	switch name {
	case "int64":
		return batch.Int64, nil
	case "float64":
		return batch.Float64, nil
	case "string":
		return batch.StringType, nil
	case "bool":
		return batch.Bool, nil
	case "timestamp":
		return batch.Timestamp, nil
	default:
		return 0, fmt.Errorf("shardqlctl: unknown column type %q", name)
	}
}

// loadSchemas reads a --schema YAML file into the table->fields map
// leaf.Executor's SchemaResolver needs.
func loadSchemas(path string) (map[string][]batch.Field, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shardqlctl: reading schema file: %w", err)
	}
	var sf schemaFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("shardqlctl: parsing schema file: %w", err)
	}
	out := make(map[string][]batch.Field, len(sf))
	for table, cols := range sf {
		fields := make([]batch.Field, len(cols))
		for i, c := range cols {
			dt, err := parseDataType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("shardqlctl: table %s: %w", table, err)
			}
			fields[i] = batch.Field{Name: c.Name, Type: dt}
		}
		out[table] = fields
	}
	return out, nil
}

// staticSchemaResolver implements leaf.SchemaResolver over a fixed,
// file-loaded table->fields map.
type staticSchemaResolver map[string][]batch.Field

func (s staticSchemaResolver) Schema(table string) ([]batch.Field, error) {
	fields, ok := s[table]
	if !ok {
		return nil, fmt.Errorf("shardqlctl: no schema configured for table %q", table)
	}
	return fields, nil
}
