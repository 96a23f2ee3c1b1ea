package openapi

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// Source is an OpenAPI document on disk.
type Source struct {
	Name    string
	Path    string
	Type    string
	BaseURL string
}

// LoadFiles reads and prepares several documents concurrently. Results are
// returned in the order of sources; the first failure cancels the rest.
func LoadFiles(ctx context.Context, sources []Source, opts Options) ([]*Toolset, error) {
	toolsets := make([]*Toolset, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := os.ReadFile(src.Path)
			if err != nil {
				return fmt.Errorf("toolset %s: reading %s: %w", src.Name, src.Path, err)
			}
			o := opts
			if src.BaseURL != "" {
				o.BaseURL = src.BaseURL
			}
			ts, err := Load(src.Name, text, src.Type, o)
			if err != nil {
				return err
			}
			toolsets[i] = ts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return toolsets, nil
}
