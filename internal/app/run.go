package app

import (
	"context"
	"fmt"

	"github.com/vk/acqparamgo/internal/ctxlog"
	"github.com/vk/acqparamgo/internal/resolver"
	"github.com/vk/acqparamgo/internal/values"
)

// Run executes the main engine flow: seed values, apply requested changes,
// settle the relation graph, and print the resulting parameter report.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("run started", "par", cfg.ParPath, "check_only", cfg.CheckOnly)

	if cfg.CheckOnly {
		fmt.Fprintf(a.outW, "OK: %d parameters, relations acyclic\n", a.table.Len())
		return nil
	}

	store := values.NewStore()
	if cfg.ValuesPath != "" {
		if err := seedValues(ctx, cfg.ValuesPath, store); err != nil {
			return err
		}
	}
	if cfg.VDListPath != "" {
		if err := seedVDList(ctx, cfg.VDListPath, store); err != nil {
			return err
		}
	}

	changes, err := parseSets(cfg.Sets)
	if err != nil {
		return err
	}
	for name, v := range cfg.profileSets {
		if changes == nil {
			changes = make(map[string]float64)
		}
		if _, ok := changes[name]; !ok {
			changes[name] = v
		}
	}

	// Settle every relation against the seeded values first, then apply
	// the requested edits on top.
	result, err := a.res.Refresh(store, a.funcs)
	if err != nil {
		return err
	}
	a.logStale(result)

	if len(changes) > 0 {
		result, err = a.res.Apply(store, a.funcs, changes)
		if err != nil {
			return err
		}
		a.logger.Info("changes applied", "changed", len(changes), "recomputed", len(result.Order))
		a.logStale(result)
	}

	a.report(store.Snapshot(), result)
	a.logger.Debug("run finished")
	return nil
}

func (a *App) logStale(result *resolver.Result) {
	for _, s := range result.Stale {
		a.logger.Warn("parameter left stale", "parameter", s.Param, "reason", s.Reason)
	}
}
