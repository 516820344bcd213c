package session_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-invoice-client/apiclient"
	fakekvrepo "github.com/jrsteele09/go-invoice-client/keyvalue/repofakes"
	"github.com/jrsteele09/go-invoice-client/session"
)

// testAPI is a scriptable stand-in for the auth and resource endpoints.
type testAPI struct {
	lock sync.Mutex

	loginStatus   int
	loginBody     string
	refreshStatus int
	refreshBody   string

	// validToken gates the protected resource endpoint.
	validToken string

	hits map[string]int
}

func newTestAPI() *testAPI {
	return &testAPI{
		loginStatus:   http.StatusOK,
		refreshStatus: http.StatusOK,
		hits:          make(map[string]int),
	}
}

func (a *testAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		a.record("/auth/login")
		a.lock.Lock()
		status, body := a.loginStatus, a.loginBody
		a.lock.Unlock()
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		a.record("/auth/refresh-token")
		a.lock.Lock()
		status, body := a.refreshStatus, a.refreshBody
		a.lock.Unlock()
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/invoices", func(w http.ResponseWriter, r *http.Request) {
		a.record("/invoices")
		a.lock.Lock()
		want := "Bearer " + a.validToken
		a.lock.Unlock()
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	return mux
}

func (a *testAPI) record(path string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.hits[path]++
}

func (a *testAPI) hitCount(path string) int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.hits[path]
}

type testFixture struct {
	api    *testAPI
	repo   *fakekvrepo.FakeKVRepo
	store  *session.Store
	client *apiclient.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := newTestAPI()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	f := &testFixture{
		api:  api,
		repo: fakekvrepo.NewFakeKVRepo(),
	}
	return f.build(t, server.URL)
}

func (f *testFixture) build(t *testing.T, baseURL string) *testFixture {
	t.Helper()

	f.store = session.New(f.repo)
	client, err := apiclient.New(baseURL,
		apiclient.WithTokenSource(f.store),
		apiclient.WithRefresher(f.store),
	)
	require.NoError(t, err)
	f.store.UseClient(client)
	f.client = client
	return f
}

func (f *testFixture) login(t *testing.T) {
	t.Helper()

	f.api.lock.Lock()
	f.api.loginBody = `{"success":true,"token":"T1","refreshToken":"R1","user":{"id":1,"name":"A","email":"a@example.com"}}`
	f.api.lock.Unlock()

	_, err := f.store.Login(context.Background(), session.Credentials{Email: "a@example.com", Password: "b"})
	require.NoError(t, err)
}

func TestLoginStoresSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	token, ok := f.store.CurrentAccessToken()
	require.True(t, ok)
	require.Equal(t, "T1", token)
	require.True(t, f.store.IsAuthenticated())

	for _, key := range []string{"token", "refreshToken", "user"} {
		_, present, err := f.repo.Get(key)
		require.NoError(t, err)
		require.True(t, present, "expected persisted key %q", key)
	}

	current := f.store.Current()
	profile, err := current.Profile()
	require.NoError(t, err)
	require.Equal(t, "A", profile.Name)
	require.Equal(t, "a@example.com", profile.Email)
}

func TestRejectedLoginLeavesSessionUntouched(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.api.lock.Lock()
	f.api.loginBody = `{"success":false,"message":"bad password"}`
	f.api.lock.Unlock()

	_, err := f.store.Login(context.Background(), session.Credentials{Email: "a@example.com", Password: "wrong"})
	require.Equal(t, apiclient.KindRequestFailed, apiclient.KindOf(err))

	token, ok := f.store.CurrentAccessToken()
	require.True(t, ok)
	require.Equal(t, "T1", token)
}

func TestRefreshWithoutTokenFailsWithoutNetworkCall(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.store.Refresh(context.Background())
	require.Equal(t, apiclient.KindNoSession, apiclient.KindOf(err))
	require.Zero(t, f.api.hitCount("/auth/refresh-token"))
}

func TestRefreshFailureClearsWholeSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.api.lock.Lock()
	f.api.refreshStatus = http.StatusUnauthorized
	f.api.lock.Unlock()

	_, err := f.store.Refresh(context.Background())
	require.Error(t, err)
	require.False(t, f.store.IsAuthenticated())
	require.Zero(t, f.repo.Len())
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.api.lock.Lock()
	f.api.refreshBody = `{"success":true,"token":"T2","refreshToken":"R2"}`
	f.api.lock.Unlock()

	token, err := f.store.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "T2", token)

	stored, _, err := f.repo.Get("token")
	require.NoError(t, err)
	require.Equal(t, "T2", stored)
	storedRefresh, _, err := f.repo.Get("refreshToken")
	require.NoError(t, err)
	require.Equal(t, "R2", storedRefresh)
}

func TestRefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.api.lock.Lock()
	f.api.refreshBody = `{"success":true,"token":"T2"}`
	f.api.lock.Unlock()

	_, err := f.store.Refresh(context.Background())
	require.NoError(t, err)

	storedRefresh, _, err := f.repo.Get("refreshToken")
	require.NoError(t, err)
	require.Equal(t, "R1", storedRefresh)
}

func TestMalformedRefreshResponseClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.api.lock.Lock()
	f.api.refreshBody = `not json`
	f.api.lock.Unlock()

	_, err := f.store.Refresh(context.Background())
	require.Equal(t, apiclient.KindRequestFailed, apiclient.KindOf(err))
	require.False(t, f.store.IsAuthenticated())
	require.Zero(t, f.repo.Len())
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	f.store.Logout()
	f.store.Logout()

	require.False(t, f.store.IsAuthenticated())
	_, ok := f.store.CurrentAccessToken()
	require.False(t, ok)
	require.Zero(t, f.repo.Len())
}

func TestSessionSurvivesRestart(t *testing.T) {
	repo := fakekvrepo.NewFakeKVRepo()
	require.NoError(t, repo.Set("token", "T1"))
	require.NoError(t, repo.Set("refreshToken", "R1"))
	require.NoError(t, repo.Set("user", `{"id":1,"name":"A"}`))

	store := session.New(repo)
	require.True(t, store.IsAuthenticated())
	token, ok := store.CurrentAccessToken()
	require.True(t, ok)
	require.Equal(t, "T1", token)
}

func TestExpiredTokenIsRefreshedAndRequestReplayedOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	// The stored T1 is now stale: only T2 opens the resource endpoint, and
	// the refresh endpoint hands it out.
	f.api.lock.Lock()
	f.api.validToken = "T2"
	f.api.refreshBody = `{"success":true,"token":"T2"}`
	f.api.lock.Unlock()

	resp, err := f.client.Get(context.Background(), "/invoices")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, 2, f.api.hitCount("/invoices"))
	require.Equal(t, 1, f.api.hitCount("/auth/refresh-token"))
	require.True(t, f.store.IsAuthenticated())
}
