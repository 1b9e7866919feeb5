package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/toolchain"
)

var errNoSlides = errors.New("no slides produced")

// rasterize renders the asset into slide-0001.png... in the work dir
func (p *implProcessor) rasterize(ctx context.Context, task Task) ([]string, error) {
	switch task.Asset.Kind {
	case domain.AssetKindDocument:
		return p.rasterizeDocument(ctx, task)
	case domain.AssetKindImage:
		return p.copyImage(ctx, task)
	default:
		return nil, fmt.Errorf("unsupported asset kind %q", task.Asset.Kind)
	}
}

func (p *implProcessor) rasterizeDocument(ctx context.Context, task Task) ([]string, error) {
	if !p.executor.Available(p.tools.Pdftoppm) {
		return nil, fmt.Errorf("%s not found (install poppler-utils)", p.tools.Pdftoppm)
	}

	p.logger.Info(ctx, "Rasterizing %s", task.Asset.Path)
	cmd := p.tools.Rasterize(task.Asset.Path, filepath.Join(task.Job.WorkDir, toolchain.PagePrefix))
	res, err := p.executor.Run(ctx, cmd)
	task.Log.Command(cmd, res)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("%s exited with status %d", cmd.Name, res.ExitCode)
	}

	pages, err := toolchain.CollectPages(task.Job.WorkDir, toolchain.PagePrefix)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, errNoSlides
	}

	// normalize page-N.png (pad width depends on page count) to slide-%04d.png
	slides := make([]string, len(pages))
	for i, page := range pages {
		slide := filepath.Join(task.Job.WorkDir, toolchain.SlideName(i+1))
		if err := os.Rename(page, slide); err != nil {
			return nil, fmt.Errorf("rename page %d: %w", i+1, err)
		}
		slides[i] = slide
	}
	return slides, nil
}

func (p *implProcessor) copyImage(ctx context.Context, task Task) ([]string, error) {
	slide := filepath.Join(task.Job.WorkDir, toolchain.SlideName(1))

	if strings.EqualFold(filepath.Ext(task.Asset.Path), ".png") {
		if err := copyFile(task.Asset.Path, slide); err != nil {
			return nil, fmt.Errorf("copy image: %w", err)
		}
		return []string{slide}, nil
	}

	if !p.executor.Available(p.tools.FFmpeg) {
		return nil, fmt.Errorf("%s not found; cannot convert %s", p.tools.FFmpeg, filepath.Ext(task.Asset.Path))
	}
	p.logger.Info(ctx, "Converting image %s", task.Asset.Path)
	cmd := p.tools.ConvertImage(task.Asset.Path, slide)
	res, err := p.executor.Run(ctx, cmd)
	task.Log.Command(cmd, res)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("convert image: %s exited with status %d", cmd.Name, res.ExitCode)
	}
	if _, err := os.Stat(slide); err != nil {
		return nil, errNoSlides
	}
	return []string{slide}, nil
}
