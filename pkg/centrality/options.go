package centrality

import (
	"fmt"
	"runtime"
	"strings"
)

// PairCounting selects how betweenness totals treat endpoint pairs.
type PairCounting int

const (
	// OrderedPairs sums the dependency of every source without correction,
	// so each unordered pair {s, t} is counted from both ends. A star centre
	// with k leaves scores k(k-1). This is the default.
	OrderedPairs PairCounting = iota

	// UnorderedPairs halves the totals so each unordered pair contributes
	// once. A star centre with k leaves scores k(k-1)/2.
	UnorderedPairs
)

// String returns the flag and config spelling of p.
func (p PairCounting) String() string {
	switch p {
	case OrderedPairs:
		return "ordered"
	case UnorderedPairs:
		return "unordered"
	default:
		return fmt.Sprintf("PairCounting(%d)", int(p))
	}
}

// ParsePairCounting parses "ordered" or "unordered" (case-insensitive).
// The empty string selects [OrderedPairs].
func ParsePairCounting(s string) (PairCounting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ordered":
		return OrderedPairs, nil
	case "unordered", "halved":
		return UnorderedPairs, nil
	default:
		return 0, fmt.Errorf("invalid pair counting %q (must be ordered or unordered)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PairCounting) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PairCounting) UnmarshalText(b []byte) error {
	v, err := ParsePairCounting(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ProgressFunc receives progress for the per-source metrics. It is called
// from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(metric Metric, done, total int)

// Options configures metric computation. The zero value is ready to use.
type Options struct {
	// Workers bounds the goroutines used by each per-source metric.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// PairCounting selects the betweenness convention.
	PairCounting PairCounting

	// Progress, if set, is notified as sources complete.
	Progress ProgressFunc
}

func (o Options) workers(n int) int {
	w := o.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return max(1, min(w, n))
}
