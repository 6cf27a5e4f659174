// Command calypso-loader ingests coverage files listed in a manifest into a coverage
// store, or drops every stored sample.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yumyai/calypso/internal/config"
	"github.com/yumyai/calypso/logger"
	covdb "github.com/yumyai/calypso/pkg/db"
	"github.com/yumyai/calypso/pkg/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := logger.InitLogger(zapcore.InfoLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Fatal("Loader failed", zap.Error(err))
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("calypso-loader", flag.ContinueOnError)
	input := fs.String("input", "", "tab separated manifest: sample, coverage JSON path, gene collection")
	dbPath := fs.String("db", cfg.DBPath, "SQLite coverage store")
	createGroups := fs.Bool("create-groups", false, "create gene collections missing from the store")
	drop := fs.Bool("drop", false, "delete every sample from the store")
	force := fs.Bool("force", false, "do not ask for confirmation before -drop")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" && !*drop {
		fs.Usage()
		return fmt.Errorf("one of -input or -drop is required")
	}

	db, err := covdb.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *drop {
		if !*force && !confirm(stdin, stdout) {
			return nil
		}
		return dropAll(ctx, db, stdout)
	}

	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer f.Close()
	entries, err := ReadManifest(f)
	if err != nil {
		return err
	}
	return load(ctx, db, entries, *createGroups, stdout)
}

// confirm asks until the answer is y or n.
func confirm(stdin io.Reader, stdout io.Writer) bool {
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "This operation will delete all coverage data. Are you sure you want to continue? [y/n] ")
		if !scanner.Scan() {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y":
			return true
		case "n":
			return false
		}
		fmt.Fprintln(stdout, "Please respond with 'y' or 'n'.")
	}
}

func dropAll(ctx context.Context, db *covdb.CoverageDB, stdout io.Writer) error {
	samples, err := db.ListSamples(ctx, "")
	if err != nil {
		return err
	}
	for _, s := range samples {
		if err := db.RemoveSample(ctx, s.Name); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %s from %s\n", s.Name, s.Group)
	}
	return nil
}

// load ingests entries in order and stops at the first failure.
func load(ctx context.Context, db *covdb.CoverageDB, entries []Entry, createGroups bool, stdout io.Writer) error {
	for _, e := range entries {
		if createGroups {
			if err := db.CreateGroup(ctx, e.Group); err != nil && !errors.Is(err, covdb.ErrExists) {
				return err
			}
		}
		if err := ingestFile(ctx, db, e); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "ingested %s into %s\n", e.Sample, e.Group)
	}
	return nil
}

func ingestFile(ctx context.Context, db *covdb.CoverageDB, e Entry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := model.ParseCoverageFile(f)
	if err != nil {
		return fmt.Errorf("%s: %w", e.Path, err)
	}
	return db.Ingest(ctx, e.Sample, e.Group, report)
}
