package session

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"
)

// maxParallelLoads bounds how many files LoadFiles reads at once.
const maxParallelLoads = 8

// LoadFile reads and decodes a single session document.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data, FormatFromPath(path), path)
}

// LoadFiles reads the given documents in parallel and returns their records
// concatenated in argument order. The first failure cancels the remaining
// reads and is returned.
func LoadFiles(ctx context.Context, paths []string) ([]Record, error) {
	perFile := make([][]Record, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := LoadFile(path)
			if err != nil {
				return err
			}
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Record
	for _, recs := range perFile {
		all = append(all, recs...)
	}
	return all, nil
}
