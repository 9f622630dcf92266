package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// FindPDFs walks dir recursively and returns every .pdf file, sorted.
func FindPDFs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("no es un directorio: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ProcessDirectory processes every PDF below dir. See ProcessFiles.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) ([]*models.ResultadoParseo, error) {
	files, err := FindPDFs(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		p.logger.Info("no PDF files found", "dir", dir)
		return nil, nil
	}
	return p.ProcessFiles(ctx, files)
}

// ProcessFiles runs ProcessFile over paths with at most the configured
// number of workers. A failing file is reported and skipped without
// affecting the others. Results are sorted by source file name; the error
// is non-nil only when ctx is cancelled.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) ([]*models.ResultadoParseo, error) {
	results := make([]*models.ResultadoParseo, len(paths))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.ProcessFile(ctx, path)
			if err != nil {
				p.logger.Debug("file not processed", "file", path, "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*models.ResultadoParseo, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].ArchivoOrigen < out[b].ArchivoOrigen })

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
