package handler

// DI for all handlers alike.

import (
	covdb "github.com/yumyai/calypso/pkg/db"
	"github.com/yumyai/calypso/pkg/dca"
)

type AppContext struct {
	DB        *covdb.CoverageDB
	Analyses  *AnalysisJobManager
	ExportDir string
	// Defaults for analysis requests that leave them unset.
	Thresholds dca.Thresholds
	Engine     string
	Workers    int
	PageSize   int
}
