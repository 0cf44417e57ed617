package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStateMachine_TransitionTo(t *testing.T) {
	testCases := []struct {
		name    string
		prepare func(storage *inMemoryStorage)
		to      State
		wantErr error
	}{
		{
			name:    "fresh user starts onboarding",
			prepare: func(*inMemoryStorage) {},
			to:      StateOnboardingYear,
		},
		{
			name: "year advances to month",
			prepare: func(s *inMemoryStorage) {
				s.states[42] = &UserState{UserID: 42, CurrentState: StateOnboardingYear}
			},
			to: StateOnboardingMonth,
		},
		{
			name: "skipping a step is rejected",
			prepare: func(s *inMemoryStorage) {
				s.states[42] = &UserState{UserID: 42, CurrentState: StateOnboardingYear}
			},
			to:      StateOnboardingLocation,
			wantErr: ErrInvalidTransition,
		},
		{
			name: "cancel from any step",
			prepare: func(s *inMemoryStorage) {
				s.states[42] = &UserState{UserID: 42, CurrentState: StateOnboardingDay}
			},
			to: StateIdle,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			client, cleanup := setupTestRedis(t)
			t.Cleanup(cleanup)

			storage := newInMemoryStorage(0)
			tc.prepare(storage)

			fsm := NewStateMachine(storage, testLogger(), client)
			err := fsm.TransitionTo(context.Background(), 42, tc.to, nil)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			saved := storage.states[42]
			if saved == nil || saved.CurrentState != tc.to {
				t.Fatalf("expected state %s to be saved, got %+v", tc.to, saved)
			}
		})
	}
}

func TestStateMachine_TransitionCarriesContext(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := newInMemoryStorage(0)
	storage.states[7] = &UserState{
		UserID:       7,
		CurrentState: StateOnboardingYear,
		Context:      map[string]interface{}{"year": "1990"},
	}

	fsm := NewStateMachine(storage, testLogger(), client)
	if err := fsm.TransitionTo(context.Background(), 7, StateOnboardingMonth, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved := storage.states[7]
	if saved.Context["year"] != "1990" {
		t.Fatalf("expected conversation context to survive the transition, got %+v", saved.Context)
	}
}

func TestStateMachine_Lock(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := newInMemoryStorage(100 * time.Millisecond)
	fsm := NewStateMachine(storage, testLogger(), client)

	ctx := context.Background()
	userID := int64(77)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- fsm.SetState(ctx, userID, StateOnboardingYear, nil)
		}()
	}

	wg.Wait()
	close(errCh)

	var success, locked int
	for err := range errCh {
		if err == nil {
			success++
			continue
		}

		if errors.Is(err, ErrStateLocked) {
			locked++
			continue
		}

		t.Fatalf("unexpected error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected 1 successful transition, got %d", success)
	}
	if locked != 1 {
		t.Fatalf("expected 1 locked transition, got %d", locked)
	}
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type inMemoryStorage struct {
	mu     sync.Mutex
	states map[int64]*UserState
	delay  time.Duration
}

func newInMemoryStorage(delay time.Duration) *inMemoryStorage {
	return &inMemoryStorage{
		states: make(map[int64]*UserState),
		delay:  delay,
	}
}

func (s *inMemoryStorage) GetState(_ context.Context, userID int64) (*UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userState, ok := s.states[userID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return userState, nil
}

func (s *inMemoryStorage) SetState(_ context.Context, userID int64, userState *UserState) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = userState
	return nil
}

func (s *inMemoryStorage) ClearState(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
	return nil
}

func (s *inMemoryStorage) GetAllStates(_ context.Context) ([]*UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*UserState, 0, len(s.states))
	for _, userState := range s.states {
		all = append(all, userState)
	}
	return all, nil
}
