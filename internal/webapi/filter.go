package webapi

import (
	"fmt"
	"net/url"
	"strconv"
)

type runFilter struct {
	benchmark   string
	provider    string
	model       string
	fingerprint string
	limit       int
}

func parseRunFilter(q url.Values) (runFilter, error) {
	f := runFilter{
		benchmark: q.Get("benchmark"),
		provider:  q.Get("provider"),
		model:     q.Get("model"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return runFilter{}, fmt.Errorf("invalid limit %q", raw)
		}
		f.limit = n
	}
	return f, nil
}

func (f runFilter) match(r RunSummary) bool {
	return (f.benchmark == "" || r.BenchmarkID == f.benchmark) &&
		(f.provider == "" || r.Provider == f.provider) &&
		(f.model == "" || r.Model == f.model) &&
		(f.fingerprint == "" || r.Fingerprint == f.fingerprint)
}

// apply keeps matching runs in their current order. A zero limit keeps all.
func (f runFilter) apply(runs []RunSummary) []RunSummary {
	out := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		if !f.match(r) {
			continue
		}
		out = append(out, r)
		if f.limit > 0 && len(out) == f.limit {
			break
		}
	}
	return out
}

func validFingerprint(fp string) bool {
	if len(fp) != 64 {
		return false
	}
	for _, c := range fp {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
