// Command calypso-dca runs one differential coverage analysis against a coverage store
// and prints the top genes.
package main

import (
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
	"github.com/yumyai/calypso/pkg/dca"
	"github.com/yumyai/calypso/pkg/report"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := logger.InitLogger(zapcore.WarnLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Fatal("Analysis failed", zap.Error(err))
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("calypso-dca", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "SQLite coverage store")
	groups := fs.String("groups", "", "two comma separated groups [required]")
	reference := fs.String("reference", "", "reference group (default: the alphabetically first group)")
	pvalue := fs.Float64("pvalue", cfg.Thresholds.PValue, "p-value threshold")
	fc := fs.Float64("fc", cfg.Thresholds.FoldChange, "log2 fold change threshold")
	engineName := fs.String("engine", cfg.Engine, "statistical engine: edger or fisher")
	top := fs.Int("top", 20, "number of genes to print, 0 for all")
	exportDir := fs.String("export", "", "write the result tables to this directory")
	plotPath := fs.String("plot", "", "write a volcano plot PNG to this path")
	workers := fs.Int("workers", cfg.FetchWorkers, "concurrent coverage reads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *groups == "" {
		fs.Usage()
		return fmt.Errorf("-groups is required")
	}

	engine, err := dca.EngineByName(*engineName)
	if err != nil {
		return err
	}
	th := dca.Thresholds{PValue: *pvalue, FoldChange: *fc}
	if err := th.Validate(); err != nil {
		return err
	}

	db, err := covdb.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []dca.Option{dca.WithEngine(engine), dca.WithWorkers(*workers)}
	if *reference != "" {
		opts = append(opts, dca.WithReference(*reference))
	}
	a, err := dca.New(ctx, db, strings.Split(*groups, ","), opts...)
	if err != nil {
		return err
	}
	results, err := a.Run(th)
	if err != nil {
		return err
	}

	if err := report.WriteResults(stdout, dca.ResultRows(dca.Top(results, *top))); err != nil {
		return err
	}
	if *exportDir != "" {
		if err := a.Export(*exportDir); err != nil {
			return err
		}
	}
	if *plotPath != "" {
		if err := a.Plot(*plotPath); err != nil {
			return err
		}
	}
	return nil
}
