package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/shardql/shardql/cmn"
	"github.com/shardql/shardql/cmn/nlog"
	"github.com/shardql/shardql/filedata"
	"github.com/shardql/shardql/leaf"
	"github.com/shardql/shardql/resultcache"
	"github.com/shardql/shardql/transport"
)

// isInteractive reports whether stderr is an attached terminal, the
// signal cmd/shardqlctl uses to decide whether color and progress bars
// are worth the bytes (piped output, e.g. into a log file, gets plain
// text).
func isInteractive() bool { return term.IsTerminal(int(os.Stderr.Fd())) }

func main() {
	if !isInteractive() {
		color.NoColor = true
	}

	app := cli.NewApp()
	app.Name = "shardqlctl"
	app.Usage = "operate a shardql node"
	app.Commands = []cli.Command{
		nodeCommand,
		cacheCommand,
		puffinCommand,
	}

	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "shardqlctl: %v\n", err)
		os.Exit(1)
	}
}

var nodeCommand = cli.Command{
	Name:  "node",
	Usage: "run a leaf node",
	Subcommands: []cli.Command{
		{
			Name:  "start",
			Usage: "start serving the Search RPC over gRPC",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "path to a YAML config file (defaults omitted)"},
				cli.StringFlag{Name: "listen", Value: ":7090", Usage: "gRPC listen address"},
				cli.StringFlag{Name: "storage-dir", Usage: "root directory backing the object-storage fallback", Value: "/var/lib/shardql/objects"},
				cli.StringFlag{Name: "puffin-dir", Usage: "root directory holding per-file .puffin indexes", Value: "/var/lib/shardql/objects"},
				cli.StringFlag{Name: "schema", Usage: "path to a table schema YAML file (required)"},
			},
			Action: runNodeStart,
		},
	},
}

func runNodeStart(c *cli.Context) error {
	cfg := cmn.GCO.Get()
	if path := c.String("config"); path != "" {
		loaded, err := cmn.LoadYAML(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	schemaPath := c.String("schema")
	if schemaPath == "" {
		return cli.NewExitError("shardqlctl: --schema is required", 1)
	}
	schemas, err := loadSchemas(schemaPath)
	if err != nil {
		return err
	}

	cache := filedata.NewFromConfig(cfg, fsStorage{root: c.String("storage-dir")})
	if err := cache.Init(); err != nil {
		return fmt.Errorf("shardqlctl: initializing file-data cache: %w", err)
	}

	executor := &leaf.Executor{
		FileData: cache,
		Puffin:   fsPuffinLoader{root: c.String("puffin-dir")},
		Schemas:  staticSchemaResolver(schemas),
	}

	srv := transport.NewServer(transport.AuthConfig{OrgHeaderKey: cfg.GRPC.OrgHeaderKey}, cfg.GRPC.MaxMessageSize)
	transport.RegisterServer(srv, executor)

	lis, err := net.Listen("tcp", c.String("listen"))
	if err != nil {
		return fmt.Errorf("shardqlctl: listening on %s: %w", c.String("listen"), err)
	}

	color.New(color.FgGreen).Printf("shardqlctl: node listening on %s\n", c.String("listen"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		nlog.Infoln("shardqlctl: received shutdown signal, draining")
		srv.GracefulStop()
		return nil
	}
}

var cacheCommand = cli.Command{
	Name:  "cache",
	Usage: "inspect the result cache",
	Subcommands: []cli.Command{
		{
			Name:  "stats",
			Usage: "print the number of cached result metas",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "dir", Usage: "result-cache root directory", Value: "/var/lib/shardql/results"},
			},
			Action: runCacheStats,
		},
	},
}

func runCacheStats(c *cli.Context) error {
	rc, err := resultcache.Open(c.String("dir"))
	if err != nil {
		return err
	}
	defer rc.Close()

	entries, err := rc.Stats()
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Printf("cached result metas: %d\n", entries)
	return nil
}

var puffinCommand = cli.Command{
	Name:  "puffin",
	Usage: "build and inspect puffin indexes",
	Subcommands: []cli.Command{
		{
			Name:  "rebuild",
			Usage: "rebuild a file's puffin term index from its record batch",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "batch", Usage: "path to a msgp-encoded RecordBatch (required)"},
				cli.StringFlag{Name: "out", Usage: "path to write the resulting .puffin file (required)"},
				cli.StringSliceFlag{Name: "text-column", Usage: "string column(s) indexed for free-text match-all search"},
				cli.StringSliceFlag{Name: "partition-column", Usage: "string column(s) indexed for partition-key equality"},
			},
			Action: runPuffinRebuild,
		},
	},
}

func runPuffinRebuild(c *cli.Context) error {
	batchPath, out := c.String("batch"), c.String("out")
	if batchPath == "" || out == "" {
		return cli.NewExitError("shardqlctl: --batch and --out are required", 1)
	}
	if err := rebuildPuffinIndex(batchPath, out, c.StringSlice("text-column"), c.StringSlice("partition-column"), isInteractive()); err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("shardqlctl: wrote puffin index to %s\n", out)
	return nil
}
