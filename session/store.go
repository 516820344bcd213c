package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-invoice-client/apiclient"
	"github.com/jrsteele09/go-invoice-client/keyvalue"
)

// Persisted key layout. Each key is independently readable, but the store
// always writes and clears them as a unit.
const (
	tokenKey        = "token"
	refreshTokenKey = "refreshToken"
	userKey         = "user"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh-token"
)

// Store owns the authentication session and its persistence. It is the sole
// writer of session state; every other component reads it through
// CurrentAccessToken and IsAuthenticated.
//
// Store satisfies apiclient.TokenSource and apiclient.Refresher, so a client
// configured with it injects the bearer token before each request and
// refreshes the session on the first 401 of a call.
type Store struct {
	repo   keyvalue.Repo
	logger zerolog.Logger

	lock    sync.RWMutex
	client  *apiclient.Client
	current Session
}

var (
	_ apiclient.TokenSource = (*Store)(nil)
	_ apiclient.Refresher   = (*Store)(nil)
)

// StoreOption modifies a Store during construction.
type StoreOption func(*Store)

// WithLogger sets the logger used for session lifecycle events.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a Store hydrated from any values already persisted in repo, so
// a session survives process restarts.
func New(repo keyvalue.Repo, options ...StoreOption) *Store {
	s := &Store{
		repo:   repo,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	s.current = s.hydrate()
	if s.current.AccessToken != "" {
		s.logger.Debug().Msg("restored persisted session")
	}

	return s
}

// UseClient wires the HTTP client used for login and refresh calls. The
// client and the store reference each other, so the client is attached after
// both are constructed.
func (s *Store) UseClient(client *apiclient.Client) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.client = client
}

// Login sends the credentials to the login endpoint and, when the server
// reports success, stores the access token, refresh token and user profile
// as a unit. On failure the session is left untouched.
func (s *Store) Login(ctx context.Context, credentials Credentials) (*Session, error) {
	client, err := s.httpClient()
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(ctx, http.MethodPost, loginPath, &apiclient.RequestOptions{
		Body:          credentials,
		DisableReauth: true,
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Success      bool            `json:"success"`
		Token        string          `json:"token"`
		RefreshToken string          `json:"refreshToken"`
		User         json.RawMessage `json:"user"`
		Message      string          `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &apiclient.Error{
			Kind:    apiclient.KindRequestFailed,
			Status:  resp.Status,
			Message: "malformed login response",
			Err:     err,
		}
	}
	if !body.Success {
		message := body.Message
		if message == "" {
			message = "login rejected"
		}
		return nil, &apiclient.Error{Kind: apiclient.KindRequestFailed, Status: resp.Status, Message: message}
	}

	next := Session{
		AccessToken:  body.Token,
		RefreshToken: body.RefreshToken,
		User:         body.User,
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.persist(next); err != nil {
		return nil, err
	}
	s.current = next

	s.logger.Info().Msg("logged in")
	snapshot := next
	return &snapshot, nil
}

// Refresh exchanges the stored refresh token for a new access token. Without
// a stored refresh token it fails immediately with KindNoSession and makes
// no network call. Any failure clears the whole session before the error is
// returned, so the session is never half-updated.
func (s *Store) Refresh(ctx context.Context) (string, error) {
	client, err := s.httpClient()
	if err != nil {
		return "", err
	}

	s.lock.RLock()
	refreshToken := s.current.RefreshToken
	s.lock.RUnlock()
	if refreshToken == "" {
		return "", &apiclient.Error{Kind: apiclient.KindNoSession, Message: "no refresh token stored"}
	}

	resp, err := client.Do(ctx, http.MethodPost, refreshPath, &apiclient.RequestOptions{
		Body:          map[string]string{"refreshToken": refreshToken},
		DisableReauth: true,
	})
	if err != nil {
		s.Logout()
		return "", err
	}

	var body struct {
		Success      bool   `json:"success"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		s.Logout()
		return "", &apiclient.Error{
			Kind:    apiclient.KindRequestFailed,
			Status:  resp.Status,
			Message: "malformed refresh response",
			Err:     err,
		}
	}
	if !body.Success || body.Token == "" {
		s.Logout()
		return "", &apiclient.Error{Kind: apiclient.KindRequestFailed, Status: resp.Status, Message: "refresh rejected"}
	}

	s.lock.Lock()
	next := s.current
	next.AccessToken = body.Token
	if body.RefreshToken != "" {
		next.RefreshToken = body.RefreshToken
	}
	if err := s.persist(next); err != nil {
		s.lock.Unlock()
		s.Logout()
		return "", err
	}
	s.current = next
	s.lock.Unlock()

	s.logger.Debug().Msg("access token refreshed")
	return body.Token, nil
}

// Logout clears all session state unconditionally. It cannot fail and is
// idempotent.
func (s *Store) Logout() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, key := range []string{tokenKey, refreshTokenKey, userKey} {
		if err := s.repo.Remove(key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to remove persisted session key")
		}
	}
	s.current = Session{}
}

// IsAuthenticated reports whether an access token is currently stored. It is
// purely a local presence check and does not validate the token.
func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.current.AccessToken != ""
}

// CurrentAccessToken returns the stored access token, if any.
func (s *Store) CurrentAccessToken() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.current.AccessToken, s.current.AccessToken != ""
}

// Current returns a snapshot of the session.
func (s *Store) Current() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()

	snapshot := s.current
	if s.current.User != nil {
		snapshot.User = append(json.RawMessage(nil), s.current.User...)
	}
	return snapshot
}

func (s *Store) httpClient() (*apiclient.Client, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.client == nil {
		return nil, fmt.Errorf("session store has no HTTP client attached")
	}
	return s.client, nil
}

// persist writes all three keys, or leaves none of them behind. Callers hold
// the write lock.
func (s *Store) persist(next Session) error {
	values := map[string]string{
		tokenKey:        next.AccessToken,
		refreshTokenKey: next.RefreshToken,
		userKey:         string(next.User),
	}
	for key, value := range values {
		if err := s.repo.Set(key, value); err != nil {
			for cleanup := range values {
				_ = s.repo.Remove(cleanup)
			}
			return fmt.Errorf("persist session key %q: %w", key, err)
		}
	}
	return nil
}

func (s *Store) hydrate() Session {
	var restored Session
	if value, ok, err := s.repo.Get(tokenKey); err == nil && ok {
		restored.AccessToken = value
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted access token")
	}
	if value, ok, err := s.repo.Get(refreshTokenKey); err == nil && ok {
		restored.RefreshToken = value
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted refresh token")
	}
	if value, ok, err := s.repo.Get(userKey); err == nil && ok && value != "" {
		restored.User = json.RawMessage(value)
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted user snapshot")
	}
	return restored
}
