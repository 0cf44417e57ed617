package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/antagonist-oracle/oracle-bot/internal/domain"
)

var bktProfiles = []byte("profiles")

// BoltStore is a ProfileRepository backed by an embedded bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the profile database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	db, err := bolt.Open(filepath.Join(dataDir, "profiles.db"), 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "open bolt db")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bktProfiles)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create profiles bucket")
	}

	return &BoltStore{db: db}, nil
}

// NewTempBoltStore creates a store in a throwaway directory for tests.
func NewTempBoltStore() (*BoltStore, error) {
	dir, err := os.MkdirTemp("", "oracle-profiles-*")
	if err != nil {
		return nil, errors.Wrap(err, "create temp dir")
	}
	return NewBoltStore(dir)
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Path returns the location of the database file.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

func (s *BoltStore) Get(_ context.Context, telegramID int64) (*domain.Profile, error) {
	var profile domain.Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bktProfiles).Get(int64ToBytes(telegramID))
		if v == nil {
			return ErrNotFound
		}
		return errors.Wrap(json.Unmarshal(v, &profile), "decode profile")
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *BoltStore) Save(_ context.Context, profile *domain.Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return errors.Wrap(err, "encode profile")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bktProfiles).Put(int64ToBytes(profile.TelegramID), encoded)
	})
}

func (s *BoltStore) ListOnboarded(_ context.Context) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bktProfiles).ForEach(func(_, v []byte) error {
			var profile domain.Profile
			if err := json.Unmarshal(v, &profile); err != nil {
				return errors.Wrap(err, "decode profile")
			}
			if profile.Onboarded {
				profiles = append(profiles, &profile)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func int64ToBytes(i int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(i))
	return b
}
