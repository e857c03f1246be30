package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/acqparamgo/internal/ctxlog"
	"github.com/vk/acqparamgo/internal/extfunc"
	"github.com/vk/acqparamgo/internal/parfile"
	"github.com/vk/acqparamgo/internal/resolver"
	"github.com/vk/acqparamgo/internal/schema"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle:
// a loaded parameter table, its relation resolver, and the external
// function registry.
type App struct {
	outW   io.Writer
	errW   io.Writer
	logger *slog.Logger
	table  *schema.Table
	res    *resolver.Resolver
	funcs  *extfunc.Registry
}

// New loads the parameter definitions, builds the relation graph, and
// returns a ready App. Loading failures and relation cycles are fatal
// here: both mark defects in the static configuration.
func New(outW, errW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("logger configured")

	table, err := parfile.Load(ctx, cfg.ParPath)
	if err != nil {
		return nil, fmt.Errorf("loading parameter definitions: %w", err)
	}
	logger.Debug("parameter table loaded", "parameters", table.Len())

	for _, def := range table.MissingInverses() {
		logger.Warn("parameter declares REL without INV_REL; edits cannot round-trip",
			"parameter", def.Name, "rel", def.Rel.Raw)
	}

	res, err := resolver.New(table)
	if err != nil {
		return nil, fmt.Errorf("building relation graph: %w", err)
	}
	for _, c := range res.Collisions() {
		logger.Warn("multiple inverse relations write the same raw slot",
			"slot", c.Slot, "parameters", c.Params)
	}

	return &App{
		outW:   outW,
		errW:   errW,
		logger: logger,
		table:  table,
		res:    res,
		funcs:  extfunc.Builtins(),
	}, nil
}

// Table returns the loaded parameter table. Primarily for tests.
func (a *App) Table() *schema.Table {
	return a.table
}

// Funcs returns the external function registry so embedding callers can
// register instrument-specific functions before Run.
func (a *App) Funcs() *extfunc.Registry {
	return a.funcs
}
