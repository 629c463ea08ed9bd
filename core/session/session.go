// Package session decides which portal client backs a signed-in student and keeps
// the per-session dashboard state alive until logout.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/dashboard"
	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/prefs"
)

const (
	MsgUnavailable     = "JIIT Web Portal server is temporarily unavailable. Please try again later."
	MsgNetwork         = "Please check your internet connection. If connected, JIIT Web Portal server is temporarily unavailable."
	MsgLoginFailed     = "Login failed. Please check your credentials."
	MsgAutoLoginFailed = "Auto-login failed. Please login again."
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNoCredentials = errors.New("no saved credentials")
	ErrOffline       = errors.New("the portal is offline, only the demo is available")
)

type Session struct {
	ID        string
	Username  string
	Demo      bool
	Client    portal.Client
	Store     *dashboard.Store
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

type Service struct {
	prefs     prefs.Repository
	newPortal portal.Factory
	newDemo   portal.Factory
	logger    core.Logger
	ttl       time.Duration
	offline   bool
	cacheOpts []fetchcache.Option
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Service)

// WithCacheOptions is passed to the dashboard store of every new session.
func WithCacheOptions(opts ...fetchcache.Option) Option {
	return func(s *Service) { s.cacheOpts = append(s.cacheOpts, opts...) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(conf *core.Config, repo prefs.Repository, realPortal, demoPortal portal.Factory, logger core.Logger, opts ...Option) *Service {
	svc := &Service{
		prefs:     repo,
		newPortal: realPortal,
		newDemo:   demoPortal,
		logger:    logger,
		ttl:       conf.Session.TTL,
		offline:   conf.Portal.Offline,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login signs in to the real portal and remembers the credentials on success.
func (svc *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = core.CleanString(username, false)
	sess, err := svc.login(ctx, username, password)
	if err != nil {
		return nil, userError(err, MsgLoginFailed)
	}
	if err := svc.prefs.SaveCredentials(ctx, prefs.Credentials{Username: username, Password: password}); err != nil {
		svc.logger.Error("saving credentials", err, core.Person{ID: sess.ID, Username: username})
	}
	return sess, nil
}

// LoginDemo starts a session on the sample data; nothing is remembered.
func (svc *Service) LoginDemo(ctx context.Context) (*Session, error) {
	client := svc.newDemo()
	if err := client.Login(ctx, "", ""); err != nil {
		return nil, errors.Wrap(err, "starting demo")
	}
	return svc.register(client, "demo", true), nil
}

// Resume signs in again with the remembered credentials.
// Credentials are forgotten unless the failure is the portal being unreachable.
func (svc *Service) Resume(ctx context.Context) (*Session, error) {
	creds, err := svc.prefs.Credentials(ctx)
	if err != nil {
		if errors.Is(err, prefs.ErrNotFound) {
			return nil, ErrNoCredentials
		}
		if core.IsShutdown(err) {
			return nil, errors.Wrap(err, "reading credentials")
		}
		// unreadable, e.g. sealed under a rotated secret
		svc.logger.Error("reading credentials", err)
		if cErr := svc.prefs.ClearCredentials(ctx); cErr != nil {
			svc.logger.Error("clearing credentials", cErr)
		}
		return nil, core.NewUserError(MsgAutoLoginFailed, err)
	}

	sess, err := svc.login(ctx, creds.Username, creds.Password)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, ErrOffline) || portal.IsUnavailable(err) || portal.IsNetwork(err) {
		return nil, userError(err, MsgAutoLoginFailed)
	}
	if cErr := svc.prefs.ClearCredentials(ctx); cErr != nil {
		svc.logger.Error("clearing credentials", cErr, core.Person{Username: creds.Username})
	}
	return nil, core.NewUserError(MsgAutoLoginFailed, err)
}

func (svc *Service) login(ctx context.Context, username, password string) (*Session, error) {
	if svc.offline {
		return nil, ErrOffline
	}
	client := svc.newPortal()
	if err := client.Login(ctx, username, password); err != nil {
		return nil, err
	}
	sess := svc.register(client, username, false)
	svc.logger.Info("logged in", core.Person{ID: sess.ID, Username: username})
	return sess, nil
}

func (svc *Service) register(client portal.Client, username string, demo bool) *Session {
	now := svc.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		Demo:      demo,
		Client:    client,
		CreatedAt: now,
		lastSeen:  now,
	}
	person := core.Person{ID: sess.ID, Username: username}
	sess.Store = dashboard.NewStore(client, svc.prefs, svc.logger, person, svc.cacheOpts...)

	svc.mu.Lock()
	svc.evictLocked(now)
	svc.sessions[sess.ID] = sess
	svc.mu.Unlock()
	return sess
}

// Get returns a live session and marks it as used.
func (svc *Service) Get(id string) (*Session, error) {
	now := svc.now()
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sess, ok := svc.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if svc.expired(sess, now) {
		svc.dropLocked(sess)
		return nil, ErrNotFound
	}
	sess.touch(now)
	return sess, nil
}

// Logout ends the session and forgets the remembered credentials. The attendance goal is kept.
func (svc *Service) Logout(ctx context.Context, id string) error {
	svc.mu.Lock()
	sess, ok := svc.sessions[id]
	if ok {
		svc.dropLocked(sess)
	}
	svc.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return errors.Wrap(svc.prefs.ClearCredentials(ctx), "clearing credentials")
}

// Drop ends the session and keeps the remembered credentials.
func (svc *Service) Drop(id string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if sess, ok := svc.sessions[id]; ok {
		svc.dropLocked(sess)
	}
}

// Len is the number of registered sessions, expired ones included until evicted.
func (svc *Service) Len() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.sessions)
}

func (svc *Service) expired(sess *Session, now time.Time) bool {
	return svc.ttl > 0 && now.Sub(sess.LastSeen()) > svc.ttl
}

func (svc *Service) evictLocked(now time.Time) {
	for _, sess := range svc.sessions {
		if svc.expired(sess, now) {
			svc.dropLocked(sess)
		}
	}
}

func (svc *Service) dropLocked(sess *Session) {
	delete(svc.sessions, sess.ID)
	sess.Store.Clear()
}

// userError turns portal failures into the messages shown to the student.
func userError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrOffline):
		return err
	case portal.IsUnavailable(err):
		return core.NewUserError(MsgUnavailable, err)
	case portal.IsNetwork(err):
		return core.NewUserError(MsgNetwork, err)
	default:
		return core.NewUserError(fallback, err)
	}
}
