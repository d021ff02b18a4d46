package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ssplaza/plaza-api/internal/data"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/observability/metrics"
	"github.com/ssplaza/plaza-api/internal/ports"
	"golang.org/x/sync/singleflight"
)

// StateResolver resolves a live session into its published state.
type StateResolver interface {
	Resolve(ctx context.Context, sess domainauth.Session) Resolution
}

// SessionManagerOptions configures a SessionManager.
type SessionManagerOptions struct {
	Backend  ports.AuthBackend
	Resolver StateResolver
	Metrics  *metrics.Metrics  // Optional
	Logger   *slog.Logger      // Optional: structured logger
	Clock    data.TimeProvider // Optional: defaults to the system clock

	// MaxSessions bounds the number of tracked sessions (LRU).
	MaxSessions int
	// EntryTTL is how long a tracked state is trusted before the next
	// Lookup probes the backend again.
	EntryTTL time.Duration
	// ResolveTimeout bounds each background probe or profile resolution.
	ResolveTimeout time.Duration
}

// ErrManagerStarted is returned by Start when the manager is already consuming events.
var ErrManagerStarted = errors.New("session manager already started")

// ErrManagerClosed is returned by Start after Close.
var ErrManagerClosed = errors.New("session manager closed")

const (
	defaultMaxSessions    = 10000
	defaultEntryTTL       = 5 * time.Minute
	defaultResolveTimeout = 5 * time.Second
)

// entry is the per-session state machine: loading -> authenticated | anonymous.
// All fields are guarded by SessionManager.mu.
type entry struct {
	state    domainauth.AuthState
	gen      uint64
	userID   string
	ready    chan struct{}
	resolved bool
}

func newEntry() *entry {
	return &entry{state: domainauth.LoadingState(), ready: make(chan struct{})}
}

func (e *entry) settle(st domainauth.AuthState) {
	e.state = st
	if st.User != nil {
		e.userID = st.User.ID
	} else {
		e.userID = ""
	}
	if !e.resolved {
		e.resolved = true
		close(e.ready)
	}
}

// SessionManager is the single writer of per-session auth state. It consumes
// the backend auth-change stream, probes sessions on first sight, resolves
// profiles, and publishes typed transitions to subscribers.
//
// Every write to an entry takes a fresh generation from a process-wide
// counter; a resolution commits only if its generation is still the entry's
// current one and the manager has not been closed.
type SessionManager struct {
	backend        ports.AuthBackend
	resolver       StateResolver
	metrics        *metrics.Metrics
	logger         *slog.Logger
	clock          data.TimeProvider
	resolveTimeout time.Duration

	mu      sync.Mutex
	entries *expirable.LRU[string, *entry]
	subs    map[int]chan domainauth.Transition
	nextSub int
	alive   bool
	started bool

	gen      atomic.Uint64
	probes   singleflight.Group
	inflight sync.WaitGroup

	stop      chan struct{}
	cancelSub func()
	consumer  sync.WaitGroup
	closeOnce sync.Once
}

// NewSessionManager constructs a SessionManager. It does nothing until Start.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = data.RealTimeProvider{}
	}
	size := opts.MaxSessions
	if size <= 0 {
		size = defaultMaxSessions
	}
	ttl := opts.EntryTTL
	if ttl <= 0 {
		ttl = defaultEntryTTL
	}
	timeout := opts.ResolveTimeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}

	return &SessionManager{
		backend:        opts.Backend,
		resolver:       opts.Resolver,
		metrics:        opts.Metrics,
		logger:         logger.With("component", "session_manager"),
		clock:          clock,
		resolveTimeout: timeout,
		entries:        expirable.NewLRU[string, *entry](size, nil, ttl),
		subs:           make(map[int]chan domainauth.Transition),
		alive:          true,
		stop:           make(chan struct{}),
	}
}

// Start subscribes to the backend auth-change stream and consumes it until
// ctx ends or Close is called.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if !m.alive {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrManagerStarted
	}
	m.started = true
	m.mu.Unlock()

	events, cancel, err := m.backend.Subscribe(ctx)
	if err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return fmt.Errorf("subscribe auth events: %w", err)
	}

	m.mu.Lock()
	m.cancelSub = cancel
	m.mu.Unlock()

	m.consumer.Add(1)
	go func() {
		defer m.consumer.Done()
		m.consume(ctx, events)
	}()

	m.logger.InfoContext(ctx, "session manager started")
	return nil
}

func (m *SessionManager) consume(ctx context.Context, events <-chan domainauth.AuthEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies one backend auth event. It is the only path through
// which backend-driven state changes enter the manager; resolutions it starts
// run in the background and commit under the generation check.
func (m *SessionManager) HandleEvent(ctx context.Context, ev domainauth.AuthEvent) {
	if !m.isAlive() {
		return
	}

	switch ev.Type {
	case domainauth.EventSignedIn:
		m.emit(domainauth.Transition{
			Kind:      domainauth.TransitionSignedIn,
			EventID:   ev.ID,
			SessionID: ev.SessionID,
			UserID:    ev.UserID,
		})
		m.refresh(ctx, ev)

	case domainauth.EventTokenRefreshed, domainauth.EventInitialSession:
		m.refresh(ctx, ev)

	case domainauth.EventUserUpdated:
		m.resolveUser(ctx, ev.UserID)

	case domainauth.EventSignedOut:
		if m.signOutLocal(ev.SessionID) {
			m.emit(domainauth.Transition{
				Kind:      domainauth.TransitionSignedOut,
				EventID:   ev.ID,
				SessionID: ev.SessionID,
				UserID:    ev.UserID,
			})
		}

	default:
		m.logger.WarnContext(ctx, "ignoring unknown auth event", "type", string(ev.Type))
	}
}

// refresh re-resolves a session named by an event. Events without a session
// payload fall back to a probe.
func (m *SessionManager) refresh(ctx context.Context, ev domainauth.AuthEvent) {
	if ev.SessionID == "" {
		return
	}
	if ev.Session == nil {
		m.probeAsync(ctx, ev.SessionID)
		return
	}
	gen, ok := m.begin(ev.SessionID)
	if !ok {
		return
	}
	m.resolveAsync(ctx, ev.SessionID, gen, *ev.Session)
}

// resolveUser re-resolves every tracked session that belongs to userID.
func (m *SessionManager) resolveUser(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	type job struct {
		id   string
		gen  uint64
		sess domainauth.Session
	}
	var jobs []job

	m.mu.Lock()
	if !m.alive {
		m.mu.Unlock()
		return
	}
	for _, id := range m.entries.Keys() {
		e, ok := m.entries.Peek(id)
		if !ok || e.userID != userID || e.state.Session == nil {
			continue
		}
		e.gen = m.gen.Add(1)
		jobs = append(jobs, job{id: id, gen: e.gen, sess: *e.state.Session})
	}
	m.mu.Unlock()

	for _, j := range jobs {
		m.resolveAsync(ctx, j.id, j.gen, j.sess)
	}
}

// signOutLocal resets the entry to anonymous. It reports whether the session
// was not already known to be signed out.
func (m *SessionManager) signOutLocal(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive {
		return false
	}

	e, ok := m.entries.Peek(sessionID)
	if !ok {
		e = newEntry()
	}
	wasSignedOut := ok && e.resolved && !e.state.IsAuthenticated()

	e.gen = m.gen.Add(1)
	e.settle(domainauth.AnonymousState())
	m.entries.Add(sessionID, e)
	m.metrics.SetTrackedSessions(m.entries.Len())
	return !wasSignedOut
}

// begin stamps a new generation on the entry, creating it in the loading
// state when untracked. Existing resolved entries keep serving their last
// state until the new resolution commits.
func (m *SessionManager) begin(sessionID string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive {
		return 0, false
	}
	e, ok := m.entries.Peek(sessionID)
	if !ok {
		e = newEntry()
		m.entries.Add(sessionID, e)
		m.metrics.SetTrackedSessions(m.entries.Len())
	}
	e.gen = m.gen.Add(1)
	return e.gen, true
}

// commit publishes st if gen is still current. Stale or post-close results are dropped.
func (m *SessionManager) commit(sessionID string, gen uint64, st domainauth.AuthState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive {
		return false
	}
	e, ok := m.entries.Peek(sessionID)
	if !ok || e.gen != gen {
		m.metrics.RecordStaleResolution()
		return false
	}
	e.settle(st)
	// Re-adding refreshes the entry's expiry.
	m.entries.Add(sessionID, e)
	return true
}

func (m *SessionManager) resolveAsync(ctx context.Context, sessionID string, gen uint64, sess domainauth.Session) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.resolveTimeout)
		defer cancel()
		m.resolve(rctx, sessionID, gen, sess)
	}()
}

func (m *SessionManager) resolve(ctx context.Context, sessionID string, gen uint64, sess domainauth.Session) {
	res := m.resolver.Resolve(ctx, sess)
	if !m.commit(sessionID, gen, res.State) {
		m.logger.DebugContext(ctx, "discarding stale resolution", "session_id", sessionID)
		return
	}
	if res.Err != nil {
		m.emit(domainauth.Transition{
			Kind:      domainauth.TransitionResolutionFailed,
			SessionID: sessionID,
			UserID:    sess.UserID,
			Err:       res.Err,
		})
	}
}

// Probe performs the one-shot current-session request for sessionID and
// returns the state it committed (or the current state if it lost a race).
// Concurrent probes for one id share a single backend call.
func (m *SessionManager) Probe(ctx context.Context, sessionID string) domainauth.AuthState {
	if sessionID == "" {
		return domainauth.AnonymousState()
	}
	m.probes.Do(sessionID, func() (any, error) {
		m.probe(ctx, sessionID)
		return nil, nil
	})
	return m.current(sessionID)
}

func (m *SessionManager) probe(ctx context.Context, sessionID string) {
	gen, ok := m.begin(sessionID)
	if !ok {
		return
	}

	sess, err := m.backend.CurrentSession(ctx, sessionID)
	switch {
	case err != nil:
		m.logger.WarnContext(ctx, "session probe failed", "session_id", sessionID, "error", err)
		if m.commit(sessionID, gen, domainauth.AnonymousState()) {
			m.emit(domainauth.Transition{
				Kind:      domainauth.TransitionResolutionFailed,
				SessionID: sessionID,
				Err:       fmt.Errorf("probe session: %w", err),
			})
		}
	case sess == nil:
		m.commit(sessionID, gen, domainauth.AnonymousState())
	default:
		m.resolve(ctx, sessionID, gen, *sess)
	}
}

func (m *SessionManager) probeAsync(ctx context.Context, sessionID string) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.resolveTimeout)
		defer cancel()
		m.Probe(pctx, sessionID)
	}()
}

// Lookup returns the current state for sessionID. An untracked id starts a
// background probe and reports the loading state; an empty id is anonymous.
func (m *SessionManager) Lookup(ctx context.Context, sessionID string) domainauth.AuthState {
	st, _ := m.lookup(ctx, sessionID)
	return st
}

func (m *SessionManager) lookup(ctx context.Context, sessionID string) (domainauth.AuthState, <-chan struct{}) {
	if sessionID == "" {
		return domainauth.AnonymousState(), nil
	}

	m.mu.Lock()
	if !m.alive {
		m.mu.Unlock()
		return domainauth.AnonymousState(), nil
	}
	e, ok := m.entries.Get(sessionID)
	lapsed := ok && m.expired(e)
	if ok && !lapsed {
		st, ready := e.state.Clone(), e.ready
		m.mu.Unlock()
		return st, ready
	}
	// Untracked, or the session behind a resolved entry has lapsed: probe again.
	e = newEntry()
	e.gen = m.gen.Add(1)
	m.entries.Add(sessionID, e)
	m.metrics.SetTrackedSessions(m.entries.Len())
	ready := e.ready
	m.mu.Unlock()

	if lapsed {
		m.probes.Forget(sessionID)
	}

	m.probeAsync(ctx, sessionID)
	return domainauth.LoadingState(), ready
}

// Await is Lookup followed by a wait until the entry leaves loading or ctx ends.
func (m *SessionManager) Await(ctx context.Context, sessionID string) domainauth.AuthState {
	st, ready := m.lookup(ctx, sessionID)
	if !st.IsLoading || ready == nil {
		return st
	}
	select {
	case <-ready:
	case <-ctx.Done():
	}
	return m.current(sessionID)
}

// current reads the tracked state without triggering a probe.
func (m *SessionManager) current(sessionID string) domainauth.AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive {
		return domainauth.AnonymousState()
	}
	e, ok := m.entries.Peek(sessionID)
	if !ok {
		return domainauth.LoadingState()
	}
	if m.expired(e) {
		return domainauth.AnonymousState()
	}
	return e.state.Clone()
}

// expired reports whether e publishes a session that is past its expiry.
// Callers hold m.mu.
func (m *SessionManager) expired(e *entry) bool {
	return e.state.Session != nil && e.state.Session.Expired(m.clock.Now())
}

// SignOut asks the backend to end the session. On failure the local state is
// left untouched and a sign_out_failed transition is emitted; on success the
// backend's SIGNED_OUT event performs the reset.
func (m *SessionManager) SignOut(ctx context.Context, sessionID string) error {
	if err := m.backend.Logout(ctx, sessionID); err != nil {
		m.logger.ErrorContext(ctx, "sign out failed", "session_id", sessionID, "error", err)
		m.emit(domainauth.Transition{
			Kind:      domainauth.TransitionSignOutFailed,
			SessionID: sessionID,
			Err:       err,
		})
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Subscribe registers a transition listener. Sends never block: a listener
// whose buffer is full misses the transition. cancel closes the channel.
func (m *SessionManager) Subscribe(buffer int) (<-chan domainauth.Transition, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domainauth.Transition, buffer)

	m.mu.Lock()
	if !m.alive {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if c, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(c)
		}
	}
}

func (m *SessionManager) emit(t domainauth.Transition) {
	if t.At.IsZero() {
		t.At = m.clock.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.alive {
		return
	}
	m.metrics.RecordTransition(string(t.Kind))
	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
			m.logger.Warn("transition dropped for slow subscriber", "kind", string(t.Kind))
		}
	}
}

func (m *SessionManager) isAlive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive
}

// Tracked returns the number of tracked sessions.
func (m *SessionManager) Tracked() int {
	return m.entries.Len()
}

// Close clears the liveness flag, tears down the backend subscription and
// waits for the event consumer to exit. In-flight resolutions keep running
// but their results are discarded. Safe to call more than once.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.alive = false
		cancel := m.cancelSub
		for id, ch := range m.subs {
			delete(m.subs, id)
			close(ch)
		}
		m.mu.Unlock()

		close(m.stop)
		if cancel != nil {
			cancel()
		}
		m.consumer.Wait()
	})
}

// waitIdle blocks until background probes and resolutions have finished.
func (m *SessionManager) waitIdle() {
	m.inflight.Wait()
}
