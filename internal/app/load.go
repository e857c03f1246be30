package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vk/acqparamgo/internal/ctxlog"
	"github.com/vk/acqparamgo/internal/jcamp"
	"github.com/vk/acqparamgo/internal/values"
)

// rawArrayRoots are the indexed arrays relations may alias into.
var rawArrayRoots = map[string]bool{"D": true, "L": true, "P": true, "PL": true}

// seedValues populates the store from a JCAMP-DX acqus file: the raw
// arrays keep their array shape, everything else lands as a scalar.
func seedValues(ctx context.Context, path string, store *values.Store) error {
	log := ctxlog.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("values: %w", err)
	}
	defer f.Close()

	file, err := jcamp.Read(f)
	if err != nil {
		return err
	}

	for name, v := range file.Scalars {
		store.SetScalar(name, v)
	}
	for root, arr := range file.Arrays {
		if rawArrayRoots[strings.ToUpper(root)] {
			store.SetArray(root, arr)
		} else {
			// Non-relation arrays are still useful as scalars when they
			// hold a single value.
			if len(arr) == 1 {
				store.SetScalar(root, arr[0])
			}
		}
	}

	log.Debug("value store seeded", "file", path,
		"scalars", len(file.Scalars), "arrays", len(file.Arrays))
	return nil
}

// seedVDList loads a variable-delay list into the store as the VD array,
// so relations can alias into it the same way they do for D and P.
func seedVDList(ctx context.Context, path string, store *values.Store) error {
	log := ctxlog.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("vdlist: %w", err)
	}
	defer f.Close()

	delays, err := jcamp.ReadVDList(f)
	if err != nil {
		return err
	}
	store.SetArray("VD", delays)

	log.Debug("variable-delay list loaded", "file", path, "delays", len(delays))
	return nil
}

// parseSets turns repeated NAME=VALUE flags into a change map.
func parseSets(sets []string) (map[string]float64, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(sets))
	for _, s := range sets {
		name, valStr, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed -set %q: want NAME=VALUE", s)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed -set %q: %w", s, err)
		}
		out[name] = v
	}
	return out, nil
}
