// Package repository persists user profiles. Two backends are provided: an
// embedded bbolt store keyed by Telegram ID, and a Postgres store for
// deployments that already run a database.
package repository

import (
	"context"
	"errors"

	"github.com/antagonist-oracle/oracle-bot/internal/domain"
)

// ErrNotFound is returned when no profile exists for the given Telegram ID.
var ErrNotFound = errors.New("profile not found")

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, telegramID int64) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
	ListOnboarded(ctx context.Context) ([]*domain.Profile, error)
	Close() error
}
