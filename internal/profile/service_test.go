package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/antagonist-oracle/oracle-bot/internal/domain"
	apperrors "github.com/antagonist-oracle/oracle-bot/internal/errors"
	"github.com/antagonist-oracle/oracle-bot/internal/repository"
)

type memoryRepo struct {
	profiles map[int64]*domain.Profile
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{profiles: make(map[int64]*domain.Profile)}
}

func (m *memoryRepo) Get(_ context.Context, telegramID int64) (*domain.Profile, error) {
	profile, ok := m.profiles[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *profile
	return &cp, nil
}

func (m *memoryRepo) Save(_ context.Context, profile *domain.Profile) error {
	cp := *profile
	m.profiles[profile.TelegramID] = &cp
	return nil
}

func (m *memoryRepo) ListOnboarded(_ context.Context) ([]*domain.Profile, error) {
	var out []*domain.Profile
	for _, profile := range m.profiles {
		if profile.Onboarded {
			cp := *profile
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryRepo) Close() error { return nil }

func testService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, log), repo
}

func TestGetOrCreate(t *testing.T) {
	svc, repo := testService()
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, &telebot.User{ID: 10, FirstName: "Ada", Username: "ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.TelegramID)
	assert.False(t, created.Onboarded)
	assert.Contains(t, repo.profiles, int64(10))

	again, err := svc.GetOrCreate(ctx, &telebot.User{ID: 10, FirstName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.FirstName, "existing profile is returned untouched")
}

func TestCompleteOnboarding(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, &telebot.User{ID: 20})
	require.NoError(t, err)

	onboarded, err := svc.IsOnboarded(ctx, 20)
	require.NoError(t, err)
	assert.False(t, onboarded)

	require.NoError(t, svc.CompleteOnboarding(ctx, 20, 1985, 11, 3, "Kyoto"))

	onboarded, err = svc.IsOnboarded(ctx, 20)
	require.NoError(t, err)
	assert.True(t, onboarded)

	got, err := svc.Get(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 1985, got.BirthYear)
	assert.Equal(t, 11, got.BirthMonth)
	assert.Equal(t, 3, got.BirthDay)
	assert.Equal(t, "Kyoto", got.Location)
}

func TestIsOnboarded_UnknownUser(t *testing.T) {
	svc, _ := testService()

	onboarded, err := svc.IsOnboarded(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, onboarded)
}

func TestParseYear(t *testing.T) {
	testCases := []struct {
		input string
		want  int
		ok    bool
	}{
		{input: "1984", want: 1984, ok: true},
		{input: " 2001 ", want: 2001, ok: true},
		{input: "84", ok: false},
		{input: "12345", ok: false},
		{input: "1899", ok: false},
		{input: "3001", ok: false},
		{input: "19x4", ok: false},
		{input: "", ok: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%q", tc.input), func(t *testing.T) {
			got, err := ParseYear(tc.input)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			} else {
				assert.ErrorIs(t, err, ErrInvalidYear)
			}
		})
	}
}

func TestParseMonthAndDay(t *testing.T) {
	month, err := ParseMonth("12")
	require.NoError(t, err)
	assert.Equal(t, 12, month)

	_, err = ParseMonth("0")
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = ParseMonth("13")
	assert.ErrorIs(t, err, ErrInvalidMonth)

	day, err := ParseDay(" 31 ")
	require.NoError(t, err)
	assert.Equal(t, 31, day)

	_, err = ParseDay("32")
	assert.ErrorIs(t, err, ErrInvalidDay)
	_, err = ParseDay("zero")
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("  a city between rivers ")
	require.NoError(t, err)
	assert.Equal(t, "a city between rivers", loc)

	_, err = ParseLocation("   ")
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

// The validation sentinels double as typed application errors so the error
// middleware can classify them.
func TestValidationErrors_CarryValidationCode(t *testing.T) {
	for _, sentinel := range []error{ErrInvalidYear, ErrInvalidMonth, ErrInvalidDay, ErrInvalidLocation} {
		var appErr *apperrors.AppError
		require.ErrorAs(t, sentinel, &appErr)
		assert.Equal(t, "E100", appErr.Code)
	}
}
