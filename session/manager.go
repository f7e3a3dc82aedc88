// Package session owns the authenticated session of a client: the current
// token pair, its persistence, and the timer that ends the session when the
// access token expires.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-queue-client/apiclient"
	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/expiry"
	"github.com/jrsteele09/go-queue-client/internal/errors"
	"github.com/jrsteele09/go-queue-client/internal/querystate"
	"github.com/jrsteele09/go-queue-client/internal/utils"
	"github.com/jrsteele09/go-queue-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	refreshFlightKey    = "refresh"
	missingTokensReason = "Missing access or refresh token in response"
)

// Manager is the single owner of session state. All methods are safe for
// concurrent use.
type Manager struct {
	rest      *apiclient.Client
	store     token.Store
	scheduler *expiry.Scheduler
	logger    zerolog.Logger
	nowFunc   func() time.Time
	status    *querystate.Set
	refreshes singleflight.Group

	mu        sync.Mutex
	pair      token.Pair
	expiresAt time.Time
	state     State
	// epoch increments whenever the session is installed or torn down. A
	// refresh only acts on the session while the epoch it started in holds.
	epoch uint64
}

var _ oauth2.TokenSource = (*Manager)(nil)

type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNowFunc sets the clock used for expiry decisions.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithScheduler replaces the expiry scheduler, mainly for tests.
func WithScheduler(s *expiry.Scheduler) Option {
	return func(m *Manager) {
		m.scheduler = s
	}
}

// New creates a Manager and restores any session found in store. A stored
// pair whose access token is already expired is torn down straight away.
func New(rest *apiclient.Client, store token.Store, opts ...Option) (*Manager, error) {
	if rest == nil {
		return nil, errors.New(errors.KindValidation, "session.New", "api client is required")
	}
	if store == nil {
		return nil, errors.New(errors.KindValidation, "session.New", "token store is required")
	}

	m := &Manager{
		rest:    rest,
		store:   store,
		logger:  log.Logger,
		nowFunc: time.Now,
		status:  querystate.NewSet(string(OpLogin), string(OpLogout), string(OpRegister), string(OpRefresh)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.scheduler == nil {
		m.scheduler = expiry.New(expiry.WithNowFunc(m.nowFunc))
	}

	m.hydrate()
	return m, nil
}

func (m *Manager) hydrate() {
	pair := token.LoadPair(m.store)
	switch {
	case pair.Access.Empty() && pair.Refresh.Empty():
		return
	case !pair.Complete():
		m.logger.Warn().Msg("stored session is incomplete, clearing it")
		token.ClearPair(m.store)
		return
	}

	exp, err := pair.Access.Expiry()
	if err != nil {
		m.logger.Warn().Err(err).Msg("stored access token is unreadable, clearing it")
		token.ClearPair(m.store)
		return
	}
	m.logger.Debug().Time("expires_at", exp).Msg("restored stored session")
	m.install(pair, exp)
}

// Login exchanges credentials for a token pair and installs it. On failure
// the existing session, if any, is left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (pair token.Pair, err error) {
	const op = "session.Login"
	ticket := m.status.Begin(string(OpLogin))
	defer func() { ticket.Settle(err) }()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return token.Pair{}, errors.New(errors.KindValidation, op, "email and password are required")
	}

	prev := m.setState(Authenticating)
	pair, exp, err := m.requestPair(ctx, apiclient.Request{
		Op:             op,
		Method:         http.MethodPost,
		Path:           apimodel.RouteProviderLogin,
		Body:           apimodel.LoginRequest{Email: email, Password: password},
		FailureMessage: "Login failed",
	})
	if err != nil {
		m.restoreState(Authenticating, prev)
		m.logger.Debug().Err(err).Msg("login failed")
		return token.Pair{}, asLoginFailure(op, err)
	}

	m.install(pair, exp)
	m.logger.Info().Time("expires_at", exp).Msg("logged in")
	return pair, nil
}

// Register creates a provider account. It never changes the session.
func (m *Manager) Register(ctx context.Context, req apimodel.RegisterRequest) (err error) {
	const op = "session.Register"
	ticket := m.status.Begin(string(OpRegister))
	defer func() { ticket.Settle(err) }()

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return errors.New(errors.KindValidation, op, "email and password are required")
	}

	_, err = m.rest.Do(ctx, apiclient.Request{
		Op:             op,
		Method:         http.MethodPost,
		Path:           apimodel.RouteProviderRegister,
		Body:           req,
		FailureMessage: "Registration failed",
	})
	if err != nil {
		return err
	}
	m.logger.Info().Msg("registered provider account")
	return nil
}

// Logout ends the session. The server is told on a best effort basis; the
// local session is cleared whatever the outcome, so Logout has no error.
func (m *Manager) Logout(ctx context.Context) {
	m.logout(ctx, nil)
}

// logout tears the session down. A non-nil current is checked under the
// lock before the remote call and again before teardown; when it reports
// false the session has moved on and is left alone.
func (m *Manager) logout(ctx context.Context, current func() bool) bool {
	m.mu.Lock()
	access := m.pair.Access
	ok := current == nil || current()
	m.mu.Unlock()
	if !ok {
		return false
	}

	ticket := m.status.Begin(string(OpLogout))
	defer ticket.Settle(nil)

	if !access.Empty() {
		m.revokeRemote(ctx, access)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current != nil && !current() {
		return false
	}
	m.teardownLocked()
	m.logger.Info().Msg("logged out")
	return true
}

// inEpoch reports whether the session is still the one seen at epoch. The
// returned func must be called with mu held.
func (m *Manager) inEpoch(epoch uint64) func() bool {
	return func() bool { return m.epoch == epoch }
}

func (m *Manager) revokeRemote(ctx context.Context, access token.Token) {
	_, err := m.rest.Do(ctx, apiclient.Request{
		Op:             "session.Logout",
		Method:         http.MethodPost,
		Path:           apimodel.RouteProviderLogout,
		Body:           struct{}{},
		Token:          token.Pair{Access: access}.OAuth2(),
		FailureMessage: "Logout failed",
	})
	switch {
	case err == nil:
	case errors.KindOf(err) == errors.KindAuth:
		m.logger.Debug().Msg("server already considered the token invalid")
	default:
		m.logger.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
	}
}

func (m *Manager) teardownLocked() {
	m.scheduler.Cancel()
	token.ClearPair(m.store)
	m.pair = token.Pair{}
	m.expiresAt = time.Time{}
	m.state = Unauthenticated
	m.epoch++
}

// Refresh rotates the token pair using the stored refresh token. Concurrent
// callers share one request and its result. Any failure logs the session
// out; the returned error keeps KindNetwork for transport failures and is
// KindAuth otherwise.
func (m *Manager) Refresh(ctx context.Context) (token.Pair, error) {
	ch := m.refreshes.DoChan(refreshFlightKey, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return token.Pair{}, res.Err
		}
		return res.Val.(token.Pair), nil
	case <-ctx.Done():
		return token.Pair{}, errors.Wrap(errors.KindNetwork, "session.Refresh", ctx.Err())
	}
}

func (m *Manager) refresh(ctx context.Context) (pair token.Pair, err error) {
	const op = "session.Refresh"
	ticket := m.status.Begin(string(OpRefresh))
	defer func() { ticket.Settle(err) }()

	refreshTok, _ := m.store.Get(token.RefreshKey)

	m.mu.Lock()
	epoch := m.epoch
	prev := m.state
	if !refreshTok.Empty() {
		m.state = Refreshing
	}
	m.mu.Unlock()

	if refreshTok.Empty() {
		m.logout(ctx, m.inEpoch(epoch))
		return token.Pair{}, errors.New(errors.KindAuth, op, "no refresh token available")
	}

	pair, exp, err := m.requestPair(ctx, apiclient.Request{
		Op:             op,
		Method:         http.MethodPost,
		Path:           apimodel.RouteRefresh,
		Body:           apimodel.RefreshRequest{RefreshToken: refreshTok.String()},
		FailureMessage: "Token refresh failed",
	})
	if err != nil {
		if m.logout(ctx, m.inEpoch(epoch)) {
			m.logger.Warn().Err(err).Msg("token refresh failed, logged out")
		} else {
			m.logger.Debug().Err(err).Msg("token refresh failed after the session changed, keeping the newer session")
		}
		return token.Pair{}, asAuthFailure(op, err)
	}

	if !m.installIn(epoch, pair, exp) {
		m.restoreState(Refreshing, prev)
		return token.Pair{}, errors.New(errors.KindAuth, op, "session changed during refresh")
	}
	m.logger.Debug().Time("expires_at", exp).Msg("refreshed session")
	return pair, nil
}

// asLoginFailure reports a rejected login as KindAuth whatever status the
// server chose, including 404 for an unknown email. Transport failures and
// malformed responses keep their kind.
func asLoginFailure(op string, err error) error {
	e := errors.Wrap(errors.KindAuth, op, err)
	if e.Kind != errors.KindNetwork && e.Kind != errors.KindValidation {
		e.Kind = errors.KindAuth
	}
	return e
}

func asAuthFailure(op string, err error) error {
	e := errors.Wrap(errors.KindAuth, op, err)
	if e.Kind != errors.KindNetwork {
		e.Kind = errors.KindAuth
	}
	return e
}

// requestPair performs a login or refresh call and validates the returned
// pair. Nothing is installed here.
func (m *Manager) requestPair(ctx context.Context, req apiclient.Request) (token.Pair, time.Time, error) {
	resp, err := m.rest.Do(ctx, req)
	if err != nil {
		return token.Pair{}, time.Time{}, err
	}

	var body apimodel.TokenResponse
	if err := resp.Decode(&body); err != nil {
		return token.Pair{}, time.Time{}, err
	}
	pair := token.Pair{
		Access:  token.Token(utils.Value(body.AccessToken)),
		Refresh: token.Token(utils.Value(body.RefreshToken)),
	}
	if !pair.Complete() {
		return token.Pair{}, time.Time{}, errors.New(errors.KindValidation, req.Op, missingTokensReason)
	}
	exp, err := pair.Access.Expiry()
	if err != nil {
		return token.Pair{}, time.Time{}, errors.New(errors.KindValidation, req.Op, "access token has no usable exp claim")
	}
	return pair, exp, nil
}

// install persists pair, makes it current and arms its expiry timer as one
// step under the session lock.
func (m *Manager) install(pair token.Pair, exp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installLocked(pair, exp)
}

// installIn installs pair only while the session is still in epoch.
func (m *Manager) installIn(epoch uint64, pair token.Pair, exp time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false
	}
	m.installLocked(pair, exp)
	return true
}

func (m *Manager) installLocked(pair token.Pair, exp time.Time) {
	m.epoch++
	token.SavePair(m.store, pair)
	m.pair = pair
	m.expiresAt = exp
	m.state = Authenticated

	access := pair.Access
	m.scheduler.Arm(exp, func() { m.expire(access) })
}

func (m *Manager) expire(access token.Token) {
	if m.logout(context.Background(), func() bool { return m.pair.Access == access }) {
		m.logger.Info().Msg("access token expired, session ended")
	}
}

func (m *Manager) setState(s State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	m.state = s
	return prev
}

// restoreState sets prev only if nothing moved the state away from from.
func (m *Manager) restoreState(from, prev State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == from {
		m.state = prev
	}
}

// Token returns the current access token. It never refreshes; without a
// token it fails with a KindUnauthenticated error.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair.Access.Empty() {
		return nil, errors.New(errors.KindUnauthenticated, "session.Token", "not authenticated")
	}
	return m.pair.OAuth2(), nil
}

// RefreshingSource returns a TokenSource that refreshes when no access
// token is held but a refresh token is stored.
func (m *Manager) RefreshingSource(ctx context.Context) oauth2.TokenSource {
	return refreshingSource{ctx: ctx, m: m}
}

type refreshingSource struct {
	ctx context.Context
	m   *Manager
}

func (s refreshingSource) Token() (*oauth2.Token, error) {
	tok, err := s.m.Token()
	if err == nil {
		return tok, nil
	}
	if refresh, ok := s.m.store.Get(token.RefreshKey); !ok || refresh.Empty() {
		return nil, err
	}
	pair, err := s.m.Refresh(s.ctx)
	if err != nil {
		return nil, err
	}
	return pair.OAuth2(), nil
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		AccessToken:   m.pair.Access,
		RefreshToken:  m.pair.Refresh,
		Authenticated: !m.pair.Access.Empty(),
		State:         m.state,
		ExpiresAt:     m.expiresAt,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authenticated reports whether an access token is held.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.pair.Access.Empty()
}

// Status returns the loading and error state of the last call to op.
func (m *Manager) Status(op Operation) querystate.Snapshot {
	return m.status.Snapshot(string(op))
}
