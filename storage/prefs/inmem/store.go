package inmem

import (
	"context"
	"sync"

	"github.com/trezcool/campuscompanion/core/prefs"
)

type Store struct {
	mu    sync.RWMutex
	goal  int
	creds *prefs.Credentials
}

var _ prefs.Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{goal: prefs.DefaultGoal}
}

func (s *Store) Goal(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goal, nil
}

func (s *Store) SetGoal(_ context.Context, goal int) error {
	if err := prefs.ValidateGoal(goal); err != nil {
		return err
	}
	s.mu.Lock()
	s.goal = goal
	s.mu.Unlock()
	return nil
}

func (s *Store) Credentials(context.Context) (prefs.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return prefs.Credentials{}, prefs.ErrNotFound
	}
	return *s.creds, nil
}

func (s *Store) SaveCredentials(_ context.Context, creds prefs.Credentials) error {
	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	return nil
}

func (s *Store) ClearCredentials(context.Context) error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	return nil
}
