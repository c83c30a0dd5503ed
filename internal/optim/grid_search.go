package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrNoTrials = errors.New("optim: no trial succeeded")

// Trial is one evaluated parameter combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Maximize makes Search prefer the largest value instead of the smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Size is the number of combinations Search will evaluate.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every combination in order and returns the best trial
// along with all of them. Failed trials are kept with their error.
func (g *GridSearch) Search(
	ctx context.Context,
	eval func(ctx context.Context, params map[string]float64) (float64, error),
) (Trial, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	trials := make([]Trial, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), eval, &trials); err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}
	found := false
	for _, tr := range trials {
		if tr.Err != nil {
			continue
		}
		if (g.maximize && tr.Value > best.Value) || (!g.maximize && tr.Value < best.Value) {
			best = tr
			found = true
		}
	}
	if !found {
		return Trial{}, trials, ErrNoTrials
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	eval func(context.Context, map[string]float64) (float64, error),
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		val, err := eval(ctx, current)
		*trials = append(*trials, Trial{Params: current, Value: val, Err: err})
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval, trials); err != nil {
			return err
		}
	}
	return nil
}

// ParseRange reads "name=v1,v2,..." or "name=lo:hi:step".
func ParseRange(s string) (string, []float64, error) {
	name, rangeStr, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || rangeStr == "" {
		return "", nil, fmt.Errorf("optim: range %q: want name=values", s)
	}

	if parts := strings.Split(rangeStr, ":"); len(parts) == 3 {
		var lo, hi, step float64
		for i, dst := range []*float64{&lo, &hi, &step} {
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			if err != nil {
				return "", nil, fmt.Errorf("optim: range %q: %w", s, err)
			}
			*dst = v
		}
		if step <= 0 || hi < lo {
			return "", nil, fmt.Errorf("optim: range %q: need lo <= hi and step > 0", s)
		}
		var vals []float64
		for i := 0; ; i++ {
			v := lo + float64(i)*step
			if v > hi+step*1e-9 {
				break
			}
			vals = append(vals, v)
		}
		return name, vals, nil
	}

	var vals []float64
	for _, f := range strings.Split(rangeStr, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: range %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}
