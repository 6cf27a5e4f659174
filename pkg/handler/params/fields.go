package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yumyai/calypso/pkg/dca"
)

// Limit parses a non-negative integer query parameter. A missing value is def.
func Limit(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, v)
	}
	return n, nil
}

// Classes parses the comma separated class parameter. No parameter means no filter.
func Classes(q url.Values) ([]dca.Classification, error) {
	v := q.Get("class")
	if v == "" {
		return nil, nil
	}
	var out []dca.Classification
	for _, s := range strings.Split(v, ",") {
		c, ok := dca.ParseClassification(strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("unknown classification %q", s)
		}
		out = append(out, c)
	}
	return out, nil
}

// FilterResults keeps results whose classification is one of classes, in order.
func FilterResults(results []dca.Result, classes []dca.Classification) []dca.Result {
	if len(classes) == 0 {
		return results
	}
	out := make([]dca.Result, 0, len(results))
	for _, r := range results {
		for _, c := range classes {
			if r.Classification == c {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
