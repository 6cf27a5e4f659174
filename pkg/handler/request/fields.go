package request

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yumyai/calypso/pkg/dca"
)

var ErrMissingField = errors.New("missing field")

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", name, ErrMissingField)
	}
	return nil
}

func (r GroupRequest) Validate() error {
	return required("name", r.Name)
}

func (r IngestRequest) Validate() error {
	if err := required("sample_name", r.SampleName); err != nil {
		return err
	}
	if err := required("gene_collection", r.GeneCollection); err != nil {
		return err
	}
	return required("path", r.Path)
}

func (r GeneCoverageRequest) Validate() error {
	if err := required("sample_name", r.SampleName); err != nil {
		return err
	}
	return required("gene_collection", r.GeneCollection)
}

func (r SampleMetricsRequest) Validate() error {
	return required("gene_collection", r.GeneCollection)
}

func (r GeneAggregateRequest) Validate() error {
	if len(r.GeneList) == 0 {
		return fmt.Errorf("gene_list: %w", ErrMissingField)
	}
	return nil
}

func (r GeneSummaryRequest) Validate() error {
	if err := required("gene_collection", r.GeneCollection); err != nil {
		return err
	}
	if len(r.GeneList) == 0 {
		return fmt.Errorf("gene_list: %w", ErrMissingField)
	}
	return nil
}

// Validate checks the groups and the engine name. Threshold ranges are checked by Thresholds.
func (r AnalysisRequest) Validate() error {
	if len(r.Groups) != 2 {
		return fmt.Errorf("groups: exactly two groups are compared, got %d", len(r.Groups))
	}
	if err := required("groups[0]", r.Groups[0]); err != nil {
		return err
	}
	if err := required("groups[1]", r.Groups[1]); err != nil {
		return err
	}
	if r.Groups[0] == r.Groups[1] {
		return fmt.Errorf("groups: %q is compared with itself", r.Groups[0])
	}
	if r.Reference != "" && r.Reference != r.Groups[0] && r.Reference != r.Groups[1] {
		return fmt.Errorf("reference: %q is not one of the compared groups", r.Reference)
	}
	if r.Top < 0 {
		return fmt.Errorf("top must not be negative, got %d", r.Top)
	}
	_, err := dca.EngineByName(r.Engine)
	return err
}

// Thresholds overlays the requested thresholds on defaults and validates the result.
func (r AnalysisRequest) Thresholds(defaults dca.Thresholds) (dca.Thresholds, error) {
	th := defaults
	if r.PValueThreshold != nil {
		th.PValue = *r.PValueThreshold
	}
	if r.FoldChangeThreshold != nil {
		th.FoldChange = *r.FoldChangeThreshold
	}
	return th, th.Validate()
}
