package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/antagonist-oracle/oracle-bot/internal/domain"
)

// PostgresStore is a ProfileRepository backed by a Postgres database.
type PostgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgresStore creates a SQL-backed profile repository.
func NewPostgresStore(db *sql.DB, log *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:  db,
		log: log,
	}
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Get retrieves a profile by its Telegram identifier.
func (s *PostgresStore) Get(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	const query = `
		SELECT telegram_id, first_name, last_name, username,
		       birth_year, birth_month, birth_day, location,
		       onboarded, created_at, last_active_at
		FROM profiles
		WHERE telegram_id = $1
	`

	row := s.db.QueryRowContext(ctx, query, telegramID)

	var profile domain.Profile
	if err := row.Scan(
		&profile.TelegramID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Username,
		&profile.BirthYear,
		&profile.BirthMonth,
		&profile.BirthDay,
		&profile.Location,
		&profile.Onboarded,
		&profile.CreatedAt,
		&profile.LastActiveAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if s.log != nil {
			s.log.Error("failed to fetch profile", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}

	return &profile, nil
}

// Save upserts a profile record keyed by Telegram ID.
func (s *PostgresStore) Save(ctx context.Context, profile *domain.Profile) error {
	const query = `
		INSERT INTO profiles (telegram_id, first_name, last_name, username,
		                      birth_year, birth_month, birth_day, location,
		                      onboarded, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name     = EXCLUDED.first_name,
			last_name      = EXCLUDED.last_name,
			username       = EXCLUDED.username,
			birth_year     = EXCLUDED.birth_year,
			birth_month    = EXCLUDED.birth_month,
			birth_day      = EXCLUDED.birth_day,
			location       = EXCLUDED.location,
			onboarded      = EXCLUDED.onboarded,
			last_active_at = EXCLUDED.last_active_at
	`

	if _, err := s.db.ExecContext(
		ctx,
		query,
		profile.TelegramID,
		profile.FirstName,
		profile.LastName,
		profile.Username,
		profile.BirthYear,
		profile.BirthMonth,
		profile.BirthDay,
		profile.Location,
		profile.Onboarded,
		profile.CreatedAt,
		profile.LastActiveAt,
	); err != nil {
		if s.log != nil {
			s.log.Error("failed to save profile", slog.Int64("telegram_id", profile.TelegramID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

// ListOnboarded returns all profiles that completed onboarding.
func (s *PostgresStore) ListOnboarded(ctx context.Context) ([]*domain.Profile, error) {
	const query = `
		SELECT telegram_id, first_name, last_name, username,
		       birth_year, birth_month, birth_day, location,
		       onboarded, created_at, last_active_at
		FROM profiles
		WHERE onboarded = TRUE
		ORDER BY telegram_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select onboarded profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		var profile domain.Profile
		if err := rows.Scan(
			&profile.TelegramID,
			&profile.FirstName,
			&profile.LastName,
			&profile.Username,
			&profile.BirthYear,
			&profile.BirthMonth,
			&profile.BirthDay,
			&profile.Location,
			&profile.Onboarded,
			&profile.CreatedAt,
			&profile.LastActiveAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, &profile)
	}

	return profiles, rows.Err()
}
