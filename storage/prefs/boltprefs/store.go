// Package boltprefs stores preferences in a bbolt file.
// Credentials are sealed with NaCl secretbox under a key derived from the app secret.
package boltprefs

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/prefs"
)

const nonceSize = 24

var (
	bucketName     = []byte("prefs")
	goalKey        = []byte("attendanceGoal")
	credentialsKey = []byte("credentials")

	errSealedData = errors.New("prefs: sealed credentials could not be opened")
)

// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db  *bolt.DB
	key [32]byte
	mu  sync.RWMutex
}

var _ prefs.Repository = (*Store)(nil)

// Open initializes or opens a Store at the given path.
func Open(path, secret string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating bucket")
	}
	return &Store{db: db, key: sha256.Sum256([]byte(secret))}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Goal(context.Context) (int, error) {
	raw, err := s.get(goalKey)
	if err != nil {
		if err == prefs.ErrNotFound {
			return prefs.DefaultGoal, nil
		}
		return 0, err
	}
	goal, err := strconv.Atoi(string(raw))
	if err != nil || prefs.ValidateGoal(goal) != nil {
		return prefs.DefaultGoal, nil
	}
	return goal, nil
}

func (s *Store) SetGoal(_ context.Context, goal int) error {
	if err := prefs.ValidateGoal(goal); err != nil {
		return err
	}
	return s.put(goalKey, []byte(strconv.Itoa(goal)))
}

func (s *Store) Credentials(context.Context) (prefs.Credentials, error) {
	sealed, err := s.get(credentialsKey)
	if err != nil {
		return prefs.Credentials{}, err
	}
	plain, err := s.open(sealed)
	if err != nil {
		return prefs.Credentials{}, err
	}
	var creds prefs.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return prefs.Credentials{}, errors.Wrap(err, "decoding credentials")
	}
	return creds, nil
}

func (s *Store) SaveCredentials(_ context.Context, creds prefs.Credentials) error {
	plain, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	sealed, err := s.seal(plain)
	if err != nil {
		return err
	}
	return s.put(credentialsKey, sealed)
}

func (s *Store) ClearCredentials(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dbError(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(credentialsKey)
	}))
}

func (s *Store) get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, dbError(err)
	}
	if out == nil {
		return nil, prefs.ErrNotFound
	}
	return out, nil
}

func (s *Store) put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dbError(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	}))
}

// dbError turns a closed database into a shutdown: nothing can be saved anymore.
func dbError(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return core.NewShutdownError("preferences database is closed")
	}
	return err
}

// seal returns nonce || box.
func (s *Store) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, "reading nonce")
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errSealedData
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errSealedData
	}
	return plain, nil
}
