package arbor

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AssetLoader decodes images on background goroutines and hands the results
// back to the stage's frame loop through Stage.Post, so the tree is only
// touched from the frame thread.
type AssetLoader struct {
	fsys  fs.FS
	limit int
}

// NewAssetLoader reads assets from fsys. Decoding runs on up to GOMAXPROCS
// goroutines.
func NewAssetLoader(fsys fs.FS) *AssetLoader {
	return &AssetLoader{fsys: fsys, limit: runtime.GOMAXPROCS(0)}
}

// SetLimit caps the number of concurrent decodes. n <= 0 removes the cap.
func (l *AssetLoader) SetLimit(n int) { l.limit = n }

// LoadAll decodes every named image and blocks until they are done. A
// file that fails to open or decode yields an ImageContent carrying the
// error; the returned error is only set when ctx ends first.
func (l *AssetLoader) LoadAll(ctx context.Context, names []string) (map[string]*ImageContent, error) {
	results := make([]*ImageContent, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	for i, name := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = LoadImageContent(l.fsys, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	out := make(map[string]*ImageContent, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

// Load starts decoding in the background and calls done on the stage's
// frame loop, during a later Update, with the results of LoadAll.
func (l *AssetLoader) Load(ctx context.Context, s *Stage, names []string, done func(map[string]*ImageContent, error)) {
	names = append([]string(nil), names...)
	go func() {
		res, err := l.LoadAll(ctx, names)
		s.Post(func() { done(res, err) })
	}()
}
