package session

import (
	"context"
	"net/http"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/fypdesk/core"
	"github.com/trezcool/fypdesk/core/user"
)

var errNoToken = &core.AuthError{Message: "login response did not contain a token"}

type (
	AuthRepository interface {
		Login(ctx context.Context, form user.LoginForm) (user.LoginResponse, error)
		// Register returns the server confirmation message.
		Register(ctx context.Context, form user.RegisterForm) (string, error)
		Me(ctx context.Context) (user.Profile, error)
	}

	Deps struct {
		Repo       AuthRepository
		Tokens     core.KeyValueStore
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	// Snapshot is a point-in-time copy of the session state.
	Snapshot struct {
		Loading bool
		User    *user.User
	}

	// Store holds the authenticated user. It starts in the loading state until Bootstrap returns.
	Store struct {
		repo       AuthRepository
		tokens     core.KeyValueStore
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		flight     core.Flight

		mu       sync.RWMutex
		loading  bool
		usr      *user.User
		onLogout []func()
	}
)

func (s Snapshot) Authenticated() bool { return s.User != nil }

func NewStore(deps Deps) *Store {
	return &Store{
		repo:       deps.Repo,
		tokens:     deps.Tokens,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		loading:    true,
	}
}

// Bootstrap restores the session from the stored token.
// A rejected token is removed and leaves the store without a user; it is not an error.
// Transport failures keep the token, are logged and returned.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	token, err := s.tokens.Get(core.TokenKey)
	if err != nil {
		s.logger.Warn("reading stored token", err)
		s.setUser(nil)
		return nil
	}
	if token == "" {
		s.setUser(nil)
		return nil
	}

	prof, err := s.repo.Me(ctx)
	if err != nil {
		s.setUser(nil)
		if core.IsAuthError(err) {
			s.logger.Info("stored token rejected, clearing session", err)
			s.clearToken()
			return nil
		}
		s.logger.Error("auth check failed", err)
		return errors.Wrap(err, "fetching current user")
	}
	usr := prof.Normalize()
	s.setUser(&usr)
	return nil
}

// Login exchanges the credentials for a token, persists it and fetches the full profile
// (the login response has no role id).
func (s *Store) Login(ctx context.Context, email, password string) (user.User, error) {
	if err := s.flight.Begin(); err != nil {
		return user.User{}, err
	}
	defer s.flight.End()

	form := user.LoginForm{Email: email, Password: password}
	form.Clean()
	if err := core.ValidateStruct(s.validate, s.translator, form); err != nil {
		return user.User{}, err
	}

	resp, err := s.repo.Login(ctx, form)
	if err != nil {
		return user.User{}, asAuthError(err)
	}
	if resp.Token == "" {
		return user.User{}, errNoToken
	}
	if err = s.tokens.Set(core.TokenKey, resp.Token); err != nil {
		return user.User{}, errors.Wrap(err, "persisting token")
	}

	prof, err := s.repo.Me(ctx)
	if err != nil {
		s.clearToken()
		return user.User{}, errors.Wrap(err, "fetching current user")
	}
	usr := prof.Normalize()
	s.setUser(&usr)
	return usr, nil
}

// Register creates an account. It does not authenticate.
func (s *Store) Register(ctx context.Context, form user.RegisterForm) (string, error) {
	if err := s.flight.Begin(); err != nil {
		return "", err
	}
	defer s.flight.End()

	form.Clean()
	if err := core.ValidateStruct(s.validate, s.translator, form); err != nil {
		return "", err
	}
	msg, err := s.repo.Register(ctx, form)
	if err != nil {
		return "", errors.Wrap(err, "registering")
	}
	return msg, nil
}

// Refresh re-fetches the profile of the current user.
func (s *Store) Refresh(ctx context.Context) (user.User, error) {
	prof, err := s.repo.Me(ctx)
	if err != nil {
		if s.HandleAuthFailure(err) {
			return user.User{}, err
		}
		return user.User{}, errors.Wrap(err, "fetching current user")
	}
	usr := prof.Normalize()
	s.setUser(&usr)
	return usr, nil
}

// Logout clears the token and the user, then notifies the OnLogout listeners
// (the navigator sends the user back to the login view).
func (s *Store) Logout() {
	s.clearToken()
	s.mu.Lock()
	s.usr = nil
	listeners := make([]func(), len(s.onLogout))
	copy(listeners, s.onLogout)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// HandleAuthFailure logs out when err is an authentication failure and reports whether it did.
func (s *Store) HandleAuthFailure(err error) bool {
	if !core.IsAuthError(err) {
		return false
	}
	s.logger.Info("session expired", err)
	s.Logout()
	return true
}

func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Loading: s.loading}
	if s.usr != nil {
		usr := *s.usr
		snap.User = &usr
	}
	return snap
}

// User returns the current user and whether there is one.
func (s *Store) User() (user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.usr == nil {
		return user.User{}, false
	}
	return *s.usr, true
}

// Token returns the persisted bearer token, empty when there is none.
func (s *Store) Token() string {
	token, err := s.tokens.Get(core.TokenKey)
	if err != nil {
		s.logger.Warn("reading stored token", err)
		return ""
	}
	return token
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

func (s *Store) setUser(usr *user.User) {
	s.mu.Lock()
	s.usr = usr
	s.mu.Unlock()
}

func (s *Store) clearToken() {
	if err := s.tokens.Delete(core.TokenKey); err != nil {
		s.logger.Error("clearing stored token", err)
	}
}

// asAuthError maps a credential rejection (the API answers 400 or 401) to an AuthError.
func asAuthError(err error) error {
	if apiErr, ok := errors.Cause(err).(*core.APIError); ok {
		if apiErr.Status == http.StatusBadRequest || core.IsAuthStatus(apiErr.Status) {
			return &core.AuthError{Status: apiErr.Status, Message: apiErr.Error()}
		}
	}
	if core.IsAuthError(err) {
		return errors.Cause(err)
	}
	return errors.Wrap(err, "logging in")
}
