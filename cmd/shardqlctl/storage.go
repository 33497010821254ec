/*
 * Copyright (c) 2024, shardql authors.
 */
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shardql/shardql/filedata"
	"github.com/shardql/shardql/puffin"
)

// fsStorage is a minimal, real implementation of filedata.Storage (the
// out-of-scope object-storage collaborator): files live flat on local
// disk under root, named by FileKey.ID. Good enough for a single-node
// deployment or local testing; a production deployment swaps this for
// an actual object-storage client without touching filedata.Cache.
type fsStorage struct{ root string }

func (s fsStorage) GetRange(_ context.Context, fileID string, r filedata.ByteRange) ([]byte, error) {
	path := filepath.Join(s.root, fileID)
	if r.Length < 0 {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("shardqlctl: fsStorage: %w", err)
		}
		return b, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shardqlctl: fsStorage: %w", err)
	}
	defer f.Close()

	buf := make([]byte, r.Length)
	n, err := f.ReadAt(buf, r.Offset)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("shardqlctl: fsStorage: reading range of %s: %w", fileID, err)
	}
	return buf[:n], nil
}

// fsPuffinLoader resolves each file's companion puffin index from
// root/<fileID>.puffin, the on-disk layout the "puffin rebuild" command
// writes into.
type fsPuffinLoader struct{ root string }

func (l fsPuffinLoader) Load(_ context.Context, fileID string) (*puffin.Directory, bool, error) {
	path := filepath.Join(l.root, fileID+".puffin")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("shardqlctl: fsPuffinLoader: %w", err)
	}
	dir, err := puffin.FromBytes(raw)
	if err != nil {
		return nil, false, fmt.Errorf("shardqlctl: fsPuffinLoader: decoding %s: %w", path, err)
	}
	return dir, true, nil
}
