package dca

// Classification labels a gene by significance and direction of its fold change.
type Classification string

const (
	NotSignificant Classification = "not-significant"
	OverCovered    Classification = "over-covered"
	UnderCovered   Classification = "under-covered"
	Irrelevant     Classification = "irrelevant"
)

// Thresholds decide classification. A p-value equal to PValue is significant and a
// log fold change equal to FoldChange in magnitude is relevant.
type Thresholds struct {
	PValue     float64 `json:"p_value_threshold" yaml:"p_value"`
	FoldChange float64 `json:"fold_change_threshold" yaml:"fold_change"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{PValue: 0.05, FoldChange: 2.0}
}

// Validate rejects thresholds outside 0 < PValue <= 1 and FoldChange > 0.
func (t Thresholds) Validate() error {
	if !(t.PValue > 0 && t.PValue <= 1) {
		return &thresholdError{"p-value threshold must be in (0, 1]"}
	}
	if !(t.FoldChange > 0) {
		return &thresholdError{"fold change threshold must be positive"}
	}
	return nil
}

type thresholdError struct{ msg string }

func (e *thresholdError) Error() string { return e.msg }

func (e *thresholdError) Is(target error) bool { return target == ErrInvalidInput }

// Classify applies the thresholds; the first matching rule wins.
func (t Thresholds) Classify(pValue, logFC float64) Classification {
	switch {
	case pValue > t.PValue:
		return NotSignificant
	case logFC >= t.FoldChange:
		return OverCovered
	case logFC <= -t.FoldChange:
		return UnderCovered
	default:
		return Irrelevant
	}
}

// ParseClassification accepts the string form of a Classification.
func ParseClassification(s string) (Classification, bool) {
	switch c := Classification(s); c {
	case NotSignificant, OverCovered, UnderCovered, Irrelevant:
		return c, true
	}
	return "", false
}
