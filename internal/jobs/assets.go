package jobs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

// KindOf maps a file extension to an asset kind.
func KindOf(path string) (domain.AssetKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.AssetKindDocument, true
	case ".png", ".jpg", ".jpeg":
		return domain.AssetKindImage, true
	default:
		return "", false
	}
}

// AddAsset copies a local file into the asset directory and registers it.
func (m *Manager) AddAsset(ctx context.Context, srcPath, owner string) (*domain.Asset, error) {
	kind, ok := KindOf(srcPath)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported asset type %q", ErrInvalidInput, filepath.Ext(srcPath))
	}
	if strings.TrimSpace(owner) == "" {
		owner = DefaultOwner
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer src.Close()

	id := uuid.NewString()
	dst := filepath.Join(m.cfg.Paths.Assets, id+strings.ToLower(filepath.Ext(srcPath)))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("copy asset: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close asset file: %w", err)
	}

	asset := &domain.Asset{
		ID:           id,
		Owner:        owner,
		Kind:         kind,
		Path:         dst,
		OriginalName: filepath.Base(srcPath),
		CreatedAt:    m.now().UTC(),
	}
	if err := m.store.CreateAsset(ctx, asset); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("record asset: %w", err)
	}

	m.logger.Info(ctx, "Asset %s registered (%s, %s)", id, kind, asset.OriginalName)
	return asset, nil
}
