package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
)

// Trial sets up and drives one engine of an ensemble.
type Trial func(ctx context.Context, e *Engine) error

// Ensemble runs the same trial over consecutive seeds, one goroutine per
// run. Engines share nothing but the read-only tables.
type Ensemble struct {
	tables    *content.Tables
	cfg       config.Config
	numRuns   int
	seedStart int64
	opts      []Option
	perRun    func(run int) []Option
}

// NewEnsemble applies opts to every engine. Observers and discovery
// callbacks among them are called concurrently from all runs; use PerRun
// for options that must not be shared.
func NewEnsemble(tables *content.Tables, cfg *config.Config, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{tables: tables, cfg: *cfg, numRuns: numRuns, seedStart: seedStart, opts: opts}
}

// PerRun adds options built separately for each run, indexed from 0.
func (en *Ensemble) PerRun(fn func(run int) []Option) *Ensemble {
	en.perRun = fn
	return en
}

func (en *Ensemble) Run(ctx context.Context, trial Trial) ([]*Engine, error) {
	engines := make([]*Engine, en.numRuns)
	errs := make([]error, en.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < en.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := en.cfg
			cfgCopy.Seed = en.seedStart + int64(idx)

			opts := append([]Option(nil), en.opts...)
			if en.perRun != nil {
				opts = append(opts, en.perRun(idx)...)
			}
			e, err := New(en.tables, &cfgCopy, opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			engines[idx] = e
			if err := trial(ctx, e); err != nil {
				errs[idx] = fmt.Errorf("seed %d: %w", cfgCopy.Seed, err)
			}
		}(i)
	}

	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return engines, nil
}
