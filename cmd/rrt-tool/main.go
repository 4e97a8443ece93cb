package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/blobs"
	"github.com/railstats/admin-console/internal/pkg/infrastructure/storage/database"
)

// CLI defines the command-line interface
var CLI struct {
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Flatten   FlattenCmd   `cmd:"" help:"Print a document as a flat form of dotted paths."`
	Unflatten UnflattenCmd `cmd:"" help:"Rebuild a nested document from a flat form."`
	Import    ImportCmd    `cmd:"" help:"Upload RRT documents from a directory to the blob store."`
}

// Globals is bound to the Run method of every command
type Globals struct {
	Ctx context.Context
	In  io.Reader
	Out io.Writer

	// openStore returns the blob store that documents are imported into
	openStore func(ctx context.Context) (blobs.Store, func(), error)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rrt-tool"),
		kong.Description("Inspect and import Rail Rover Ticket documents"),
		kong.UsageOnError(),
		kong.Vars{"version": buildinfo.SourceVersion()},
	)

	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	err := ctx.Run(&Globals{
		Ctx:       context.Background(),
		In:        os.Stdin,
		Out:       os.Stdout,
		openStore: openPostgresStore,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}

func openPostgresStore(ctx context.Context) (blobs.Store, func(), error) {
	cfg := database.LoadConfiguration(ctx)
	if !cfg.Enabled() {
		return nil, nil, fmt.Errorf("POSTGRES_HOST must be set to import documents")
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := blobs.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return store, pool.Close, nil
}

func readInput(g *Globals, file string) ([]byte, error) {
	if file == "" {
		return io.ReadAll(g.In)
	}
	return os.ReadFile(file)
}
