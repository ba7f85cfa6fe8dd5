// Package db persists fused situation records.
package db

import (
	"context"
	"errors"
	"time"

	"go-silversense/types"
)

var ErrNotFound = errors.New("situation not found")

// MaxListLimit caps RecentSituations.
const MaxListLimit = 200

// StoredSituation is one analyzed request as kept on disk.
type StoredSituation struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Situation types.SituationRecord `json:"situation"`
	Guideline string                `json:"guideline"`
	Degraded  bool                  `json:"degraded"`
}

// Store is implemented by every persistence backend.
type Store interface {
	SaveSituation(ctx context.Context, s StoredSituation) error
	RecentSituations(ctx context.Context, limit int) ([]StoredSituation, error)
	GetSituation(ctx context.Context, id string) (StoredSituation, error)
	PruneBefore(ctx context.Context, t time.Time) (int, error)
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// Nop discards every write. Used when STORE_BACKEND=none.
type Nop struct{}

func (Nop) SaveSituation(context.Context, StoredSituation) error { return nil }

func (Nop) RecentSituations(context.Context, int) ([]StoredSituation, error) { return nil, nil }

func (Nop) GetSituation(context.Context, string) (StoredSituation, error) {
	return StoredSituation{}, ErrNotFound
}

func (Nop) PruneBefore(context.Context, time.Time) (int, error) { return 0, nil }

func (Nop) Close() error { return nil }
