package stream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/logtap/logtap/internal/domain"
)

// ConnConfig holds the per-subscription connection configuration
type ConnConfig struct {
	Subscription domain.Subscription
	Endpoint     string
	// AuthConfig is the opaque provider blob forwarded verbatim in the
	// auth frame. The core never interprets its contents.
	AuthConfig map[string]any

	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	HeartbeatInterval    time.Duration
	ConnectTimeout       time.Duration
}

// WithDefaults fills unset tuning fields
func (c ConnConfig) WithDefaults() ConnConfig {
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return c
}

// Hooks receives parsed events from the connection manager. All hooks
// are invoked from the connection's ingest goroutine, so calls for one
// subscription are strictly ordered. Nil hooks are skipped.
type Hooks struct {
	OnLog         func(domain.LogEntry)
	OnAlert       func(domain.Alert)
	OnStats       func(ProviderStats)
	OnStatus      func(StatusUpdate)
	OnStateChange func(domain.ConnState, error)
}

// ConnManager owns at most one live stream for a subscription and
// exposes its lifecycle as an observable state machine:
//
//	Disconnected -> Connecting -> Connected <-> Reconnecting -> Failed
//
// Failed is terminal until an explicit Start call resets to Connecting.
// A manual Stop closes the transport with a normal close code so the
// reconnect path never fires.
type ConnManager struct {
	cfg       ConnConfig
	transport Transport
	clk       clock.Clock
	log       *zap.Logger
	hooks     Hooks
	seq       atomic.Uint64

	mu       sync.Mutex
	state    domain.ConnState
	attempts int
	lastErr  error
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewConnManager creates a connection manager. The transport is required;
// clk and log default to the real clock and a nop logger.
func NewConnManager(cfg ConnConfig, transport Transport, clk clock.Clock, log *zap.Logger, hooks Hooks) *ConnManager {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ConnManager{
		cfg:       cfg.WithDefaults(),
		transport: transport,
		clk:       clk,
		log:       log.With(zap.String("subscription", cfg.Subscription.ID)),
		hooks:     hooks,
		state:     domain.ConnStateDisconnected,
	}
}

// Start begins connecting. Starting an already-live manager is a no-op;
// starting from Failed resets the attempt budget and reconnects.
func (m *ConnManager) Start() {
	m.mu.Lock()
	if m.state.Live() {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.attempts = 0
	m.lastErr = nil
	// Transition inside the same critical section that claims the
	// cancel/done pair, so a concurrent Start sees Connecting and
	// cannot spawn a second ingest loop.
	m.state = domain.ConnStateConnecting
	hook := m.hooks.OnStateChange
	m.mu.Unlock()

	if hook != nil {
		hook(domain.ConnStateConnecting, nil)
	}
	go m.run(ctx, done)
}

// Stop closes the stream and transitions to Disconnected from any state.
// It is safe to call at any time, including when already stopped, and
// returns once the ingest goroutine has exited.
func (m *ConnManager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	m.setState(domain.ConnStateDisconnected, nil)
}

// Status returns the observable connection status
func (m *ConnManager) Status() domain.ConnStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := domain.ConnStatus{
		State:             m.state,
		ReconnectAttempts: m.attempts,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	return status
}

func (m *ConnManager) setState(state domain.ConnState, cause error) {
	m.mu.Lock()
	m.state = state
	if cause != nil {
		m.lastErr = cause
	} else if state == domain.ConnStateConnected {
		m.lastErr = nil
	}
	hook := m.hooks.OnStateChange
	m.mu.Unlock()

	if hook != nil {
		hook(state, cause)
	}
}

func (m *ConnManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		conn, err := m.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !m.retry(ctx, err) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.attempts = 0
		m.mu.Unlock()
		m.setState(domain.ConnStateConnected, nil)
		m.log.Info("stream connected", zap.String("endpoint", m.cfg.Endpoint))

		err = m.readLoop(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		if !m.retry(ctx, err) {
			return
		}
	}
}

// dial opens the transport and performs the auth handshake. The connect
// timeout bounds the whole attempt so a hung dial still counts toward
// the attempt budget.
func (m *ConnManager) dial(ctx context.Context) (Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	conn, err := m.transport.Dial(dialCtx, m.cfg.Endpoint, nil)
	if err != nil {
		return nil, err
	}

	auth := frame{Type: frameTypeAuth}
	payload, err := marshalAuth(authPayload{
		SubscriptionID: m.cfg.Subscription.ID,
		Provider:       m.cfg.Subscription.Provider,
		Config:         m.cfg.AuthConfig,
	})
	if err == nil {
		auth.Data = payload
		err = conn.WriteFrame(auth)
	}
	if err != nil {
		_ = conn.Close(CloseGoingAway, "handshake failed")
		return nil, fmt.Errorf("auth handshake: %w", err)
	}
	return conn, nil
}

// retry decides whether the manager keeps reconnecting after a failure.
// It returns false once the attempt budget is exhausted (state Failed)
// or the context is cancelled; otherwise it waits out the backoff delay
// and returns true.
func (m *ConnManager) retry(ctx context.Context, cause error) bool {
	m.mu.Lock()
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		m.mu.Unlock()
		m.setState(domain.ConnStateFailed,
			fmt.Errorf("%w: max reconnection attempts reached: %v", domain.ErrStreamFailed, cause))
		m.log.Error("stream failed", zap.Int("attempts", m.cfg.MaxReconnectAttempts), zap.Error(cause))
		return false
	}
	m.attempts++
	attempt := m.attempts
	m.mu.Unlock()

	m.setState(domain.ConnStateReconnecting, cause)
	m.log.Warn("stream lost, reconnecting",
		zap.Int("attempt", attempt),
		zap.Duration("delay", m.cfg.ReconnectDelay),
		zap.Error(cause))

	t := m.clk.Timer(m.cfg.ReconnectDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// readLoop pumps frames from the connection until it errors or the
// context is cancelled. Heartbeats are advisory: a failed probe is
// logged but the state machine only reacts to transport errors.
func (m *ConnManager) readLoop(ctx context.Context, conn Conn) error {
	frames := make(chan []byte, 32)
	readErr := make(chan error, 1)

	go func() {
		for {
			data, err := conn.ReadFrame()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	heartbeat := m.clk.Ticker(m.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(CloseNormal, "client stopped")
			return ctx.Err()
		case err := <-readErr:
			_ = conn.Close(CloseGoingAway, "read failed")
			return err
		case data := <-frames:
			m.dispatch(data)
		case <-heartbeat.C:
			if err := conn.WriteFrame(frame{Type: frameTypePing}); err != nil {
				m.log.Warn("heartbeat send failed", zap.Error(err))
			}
		}
	}
}

// dispatch parses one frame and forwards it. Parse failures are
// recovered locally: the frame is dropped with a warning and the
// connection stays up.
func (m *ConnManager) dispatch(data []byte) {
	ev, err := parseFrame(data, m.cfg.Subscription)
	if err != nil {
		if errors.Is(err, errUnknownFrame) {
			m.log.Warn("dropping unknown frame", zap.Error(err))
		} else {
			m.log.Warn("dropping malformed frame", zap.Error(err))
		}
		return
	}

	switch {
	case ev.Log != nil:
		if ev.Log.ID == "" {
			ev.Log.ID = m.nextID()
		}
		if m.hooks.OnLog != nil {
			m.hooks.OnLog(*ev.Log)
		}
	case ev.Alert != nil:
		if ev.Alert.ID == "" {
			ev.Alert.ID = m.nextID()
		}
		if m.hooks.OnAlert != nil {
			m.hooks.OnAlert(*ev.Alert)
		}
	case ev.Stats != nil:
		if m.hooks.OnStats != nil {
			m.hooks.OnStats(*ev.Stats)
		}
	case ev.Status != nil:
		m.log.Debug("provider status",
			zap.String("status", ev.Status.Status),
			zap.String("message", ev.Status.Message))
		if m.hooks.OnStatus != nil {
			m.hooks.OnStatus(*ev.Status)
		}
	}
}

// nextID assigns a locally unique id to events that arrive without one
func (m *ConnManager) nextID() string {
	n := m.seq.Add(1)
	return m.cfg.Subscription.ID + "-" + strconv.FormatUint(n, 10)
}
