package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

const assetColumns = "id, owner, kind, path, original_name, created_at"

// CreateAsset inserts an asset record.
func (s *Store) CreateAsset(ctx context.Context, a *domain.Asset) error {
	if a == nil {
		return errors.New("asset is nil")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Owner, a.Kind, a.Path, nullableString(a.OriginalName), formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetAsset fetches an asset by id.
func (s *Store) GetAsset(ctx context.Context, id string) (*domain.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)

	var (
		a            domain.Asset
		kind         string
		originalName sql.NullString
		createdRaw   string
	)
	err := row.Scan(&a.ID, &a.Owner, &kind, &a.Path, &originalName, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	a.Kind = domain.AssetKind(kind)
	a.OriginalName = originalName.String
	if created, err := parseTime(createdRaw); err == nil {
		a.CreatedAt = created
	}
	return &a, nil
}
