package parfile

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/acqparamgo/internal/ctxlog"
	"github.com/vk/acqparamgo/internal/fsutil"
	"github.com/vk/acqparamgo/internal/schema"
)

// Load reads one or more definition files, or directories of .pdef files,
// and merges them into a single parameter table. Definitions keep the
// insertion order of the files they came from; directories are walked in
// sorted order so the result is stable.
func Load(ctx context.Context, paths ...string) (*schema.Table, error) {
	log := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("parfile: %w", err)
		}
		if info.IsDir() {
			found, err := fsutil.FindDefinitionFiles(path)
			if err != nil {
				return nil, fmt.Errorf("parfile: scanning %s: %w", path, err)
			}
			if len(found) == 0 {
				return nil, fmt.Errorf("parfile: no .pdef files under %s", path)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}

	table := schema.NewTable()
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("parfile: %w", err)
		}
		err = parseInto(table, file, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		log.Debug("parameter definitions loaded", "file", file)
	}

	log.Debug("parameter table assembled", "files", len(files), "parameters", table.Len())
	return table, nil
}
