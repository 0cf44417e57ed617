// Package profile provides business operations over user profiles, including
// onboarding answer validation.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/domain"
	apperrors "github.com/antagonist-oracle/oracle-bot/internal/errors"
	"github.com/antagonist-oracle/oracle-bot/internal/repository"
)

// Validation errors surfaced to onboarding handlers. Each maps to a re-ask
// message in the locale catalog; all carry the validation error code.
var (
	ErrInvalidYear     = apperrors.NewValidationError("invalid birth year")
	ErrInvalidMonth    = apperrors.NewValidationError("invalid birth month")
	ErrInvalidDay      = apperrors.NewValidationError("invalid birth day")
	ErrInvalidLocation = apperrors.NewValidationError("invalid location")
)

// Service provides business operations over profiles.
type Service struct {
	repo repository.ProfileRepository
	log  *slog.Logger
}

// NewService constructs a new Service instance.
func NewService(repo repository.ProfileRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetOrCreate fetches a profile by telegram ID or creates a fresh one when missing.
func (s *Service) GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.Profile, error) {
	if telegramUser == nil {
		return nil, errors.New("telegram user is nil")
	}

	profile, err := s.repo.Get(ctx, telegramUser.ID)
	if err == nil {
		return profile, nil
	}

	if !errors.Is(err, repository.ErrNotFound) {
		s.logError("get_or_create.get", telegramUser.ID, err)
		return nil, fmt.Errorf("get profile: %w", err)
	}

	now := time.Now().UTC()
	profile = &domain.Profile{
		TelegramID:   telegramUser.ID,
		FirstName:    telegramUser.FirstName,
		LastName:     telegramUser.LastName,
		Username:     telegramUser.Username,
		LastActiveAt: now,
		CreatedAt:    now,
	}

	if err := s.repo.Save(ctx, profile); err != nil {
		s.logError("get_or_create.save", telegramUser.ID, err)
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return profile, nil
}

// Get returns the stored profile for the user.
func (s *Service) Get(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	profile, err := s.repo.Get(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logError("get", telegramID, err)
		}
		return nil, err
	}
	return profile, nil
}

// IsOnboarded reports whether the user exists and completed onboarding.
func (s *Service) IsOnboarded(ctx context.Context, telegramID int64) (bool, error) {
	profile, err := s.repo.Get(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.Onboarded, nil
}

// ParseYear validates a birth-year answer: exactly four digits, 1900..current year.
func ParseYear(input string) (int, error) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) != 4 {
		return 0, ErrInvalidYear
	}

	year, err := strconv.Atoi(trimmed)
	if err != nil || year < 1900 || year > time.Now().Year() {
		return 0, ErrInvalidYear
	}
	return year, nil
}

// ParseMonth validates a birth-month answer, 1..12.
func ParseMonth(input string) (int, error) {
	month, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || month < 1 || month > 12 {
		return 0, ErrInvalidMonth
	}
	return month, nil
}

// ParseDay validates a birth-day answer, 1..31.
func ParseDay(input string) (int, error) {
	day, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || day < 1 || day > 31 {
		return 0, ErrInvalidDay
	}
	return day, nil
}

// ParseLocation validates a location answer: any non-empty text.
func ParseLocation(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", ErrInvalidLocation
	}
	return trimmed, nil
}

// CompleteOnboarding persists the collected answers and marks the profile onboarded.
func (s *Service) CompleteOnboarding(ctx context.Context, telegramID int64, year, month, day int, location string) error {
	profile, err := s.repo.Get(ctx, telegramID)
	if err != nil {
		s.logError("complete_onboarding.get", telegramID, err)
		return fmt.Errorf("get profile: %w", err)
	}

	profile.BirthYear = year
	profile.BirthMonth = month
	profile.BirthDay = day
	profile.Location = location
	profile.Onboarded = true
	profile.LastActiveAt = time.Now().UTC()

	if err := s.repo.Save(ctx, profile); err != nil {
		s.logError("complete_onboarding.save", telegramID, err)
		return fmt.Errorf("save profile: %w", err)
	}

	return nil
}

// UpdateLastActive refreshes the last-active timestamp for the user.
func (s *Service) UpdateLastActive(ctx context.Context, telegramID int64) error {
	profile, err := s.repo.Get(ctx, telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logError("update_last_active.get", telegramID, err)
		return err
	}

	profile.LastActiveAt = time.Now().UTC()
	if err := s.repo.Save(ctx, profile); err != nil {
		s.logError("update_last_active.save", telegramID, err)
		return err
	}

	return nil
}

// ListOnboarded returns every profile that finished onboarding.
func (s *Service) ListOnboarded(ctx context.Context) ([]*domain.Profile, error) {
	profiles, err := s.repo.ListOnboarded(ctx)
	if err != nil {
		s.logError("list_onboarded", 0, err)
		return nil, err
	}
	return profiles, nil
}

func (s *Service) logError(operation string, telegramID int64, err error) {
	if s == nil || s.log == nil || err == nil {
		return
	}

	s.log.Error("profile service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
