package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/auth"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/tokenstore"
)

// Resolution values carried in session_conflict event details.
const (
	ResolutionLogoutAll  = "logout_all"
	ResolutionRemoteWins = "remote_wins"
	ResolutionLocalWins  = "local_wins"
)

// Monitor runs the background health loops for one session manager.
type Monitor struct {
	cfg    Config
	mgr    *session.Manager
	store  *tokenstore.Store
	bus    *session.Bus
	prober Prober
	log    *slog.Logger

	kick chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the monitor's logger; defaults to discard.
func WithLogger(log *slog.Logger) Option {
	return func(m *Monitor) {
		if log != nil {
			m.log = log
		}
	}
}

// WithBus publishes monitor events on a shared bus instead of the
// manager's own.
func WithBus(bus *session.Bus) Option {
	return func(m *Monitor) {
		if bus != nil {
			m.bus = bus
		}
	}
}

// WithProber sets the connectivity probe. Network watching is skipped
// without one.
func WithProber(p Prober) Option {
	return func(m *Monitor) { m.prober = p }
}

// New creates a stopped monitor; call Start to launch the loops. Panics on
// a nil manager or store.
func New(mgr *session.Manager, store *tokenstore.Store, cfg Config, opts ...Option) *Monitor {
	if mgr == nil {
		panic("monitor: session manager is required")
	}
	if store == nil {
		panic("monitor: token store is required")
	}
	if cfg.PollInterval <= 0 {
		cfg = DefaultConfig()
	}

	m := &Monitor{
		cfg:   cfg,
		mgr:   mgr,
		store: store,
		bus:   mgr.Bus(),
		log:   logger.Noop(),
		kick:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the enabled loops. Safe to call once; later calls no-op.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel

		m.wg.Add(1)
		go m.pollLoop(ctx)

		if m.cfg.EnableNetworkWatch {
			if m.prober == nil {
				m.log.Warn("network watch enabled without a prober, skipping")
			} else {
				m.wg.Add(1)
				go m.networkLoop(ctx)
			}
		}
		if m.cfg.EnableConflictWatch {
			m.wg.Add(1)
			go m.conflictLoop(ctx)
		}
		if m.cfg.EnableHeartbeat {
			m.wg.Add(1)
			go m.heartbeatLoop(ctx)
		}
	})
}

// NotifyVisible signals that the application became visible or woke from
// sleep; the session is checked immediately.
func (m *Monitor) NotifyVisible() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Close stops every loop and waits for them to exit.
func (m *Monitor) Close() error {
	m.closeOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()
	})
	return nil
}

// pollLoop validates the session on a timer and on visibility kicks. The
// timer channel stays nil when polling is disabled so only kicks fire.
func (m *Monitor) pollLoop(ctx context.Context) {
	defer m.wg.Done()

	var tick <-chan time.Time
	if m.cfg.EnablePolling {
		ticker := time.NewTicker(m.cfg.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-m.kick:
		}
		m.check(ctx)
	}
}

// check runs one validation round. Network trouble is left alone so an
// offline spell never costs the user their session.
func (m *Monitor) check(ctx context.Context) {
	if m.mgr.CurrentSession() == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, m.cfg.OperationTimeout)
	defer cancel()

	status := m.mgr.ValidateSession(cctx)
	if status.Valid {
		return
	}
	if auth.CodeOf(status.Err) == auth.CodeNetworkError {
		m.log.DebugContext(ctx, "validation skipped, provider unreachable")
		return
	}

	m.log.InfoContext(ctx, "session invalid, refreshing", "code", auth.CodeOf(status.Err))
	if _, err := m.mgr.RefreshSession(cctx); err != nil {
		// Terminal failures already cleared the session inside the manager.
		m.log.WarnContext(ctx, "recovery refresh failed", "code", auth.CodeOf(err))
	}
}

func (m *Monitor) networkLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.ProbeInterval)
	defer ticker.Stop()

	online := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cctx, cancel := context.WithTimeout(ctx, m.cfg.OperationTimeout)
		now := m.prober.Online(cctx)
		cancel()

		if now == online {
			continue
		}
		online = now
		if online {
			m.bus.Publish(session.Event{Type: session.EventNetworkOnline})
			m.NotifyVisible()
		} else {
			m.bus.Publish(session.Event{Type: session.EventNetworkOffline})
		}
	}
}

func (m *Monitor) conflictLoop(ctx context.Context) {
	defer m.wg.Done()

	changes, err := m.store.Watch(ctx)
	if err != nil {
		m.log.Warn("conflict watch unavailable", "error", err)
		return
	}
	for change := range changes {
		m.handleChange(change)
	}
}

// handleChange resolves a foreign token store write against local state.
func (m *Monitor) handleChange(change tokenstore.Change) {
	if !change.Foreign(m.store.Origin()) {
		return
	}

	local := m.mgr.CurrentSession()
	record := change.Record

	if record == nil {
		// Cleared in another context; follow it.
		if local != nil {
			m.mgr.Expire(auth.NewError(auth.CodeSessionExpired, "signed out in another context"))
		}
		return
	}
	if record.Session == nil {
		return // token-only write carries no identity to compare
	}

	if local == nil {
		sess := m.mgr.SyncStored(record.Session)
		m.bus.Publish(session.Event{Type: session.EventSessionRestored, Session: sess})
		return
	}

	if record.Session.User.ID != local.User.ID {
		m.publishConflict(ResolutionLogoutAll, local, record)
		m.mgr.Expire(auth.NewError(auth.CodeSessionExpired, "session for a different user detected"))
		return
	}

	if record.Session.AccessToken == local.AccessToken {
		return
	}

	// Same user, diverged tokens: the newest refresh wins.
	localRefreshed := m.mgr.LastRefreshed()
	if record.Session.LastRefreshed.After(localRefreshed) {
		m.mgr.SyncStored(record.Session)
		m.publishConflict(ResolutionRemoteWins, local, record)
	} else {
		m.publishConflict(ResolutionLocalWins, local, record)
	}
}

func (m *Monitor) publishConflict(resolution string, local *auth.Session, record *tokenstore.Record) {
	simultaneous := false
	if record.Session != nil {
		delta := record.Session.LastRefreshed.Sub(m.mgr.LastRefreshed())
		if delta < 0 {
			delta = -delta
		}
		simultaneous = delta <= m.cfg.ConflictWindow
	}
	m.bus.Publish(session.Event{
		Type:    session.EventSessionConflict,
		Session: local,
		Details: map[string]any{
			"resolution":   resolution,
			"simultaneous": simultaneous,
		},
	})
}

func (m *Monitor) heartbeatLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sess := m.mgr.CurrentSession()
		if sess == nil {
			cctx, cancel := context.WithTimeout(ctx, m.cfg.OperationTimeout)
			if stored, err := m.store.LoadSession(cctx); err == nil {
				sess = stored.Session()
			}
			cancel()
		}
		m.bus.Publish(session.Event{Type: session.EventHeartbeat, Session: sess})
	}
}
