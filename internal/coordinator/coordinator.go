package coordinator

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mcoot/bingohall/internal/dependencies/clock"
	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/notify"
	"github.com/mcoot/bingohall/internal/protocol"
	"github.com/mcoot/bingohall/internal/services/auth"
	"github.com/mcoot/bingohall/internal/services/game"
	"github.com/mcoot/bingohall/internal/services/registry"
	"github.com/mcoot/bingohall/internal/storage"
)

// Config holds the coordinator's timing and admin settings
type Config struct {
	// Admin credential. If AdminPasswordHash is set it is a bcrypt hash and
	// AdminPassword is ignored.
	AdminPassword     string
	AdminPasswordHash string

	AutoCallInterval  time.Duration
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	// Size of the event mailbox
	MailboxSize int

	// Time allowed to archive a finished round
	ArchiveTimeout time.Duration
}

// DefaultConfig returns the standard timings
func DefaultConfig() Config {
	return Config{
		AutoCallInterval:  7 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		HeartbeatTimeout:  120 * time.Second,
		MailboxSize:       256,
		ArchiveTimeout:    5 * time.Second,
	}
}

// Coordinator serializes every event that touches game state through a single
// loop. Transports, timers and HTTP queries submit events; Run applies them
// one at a time.
type Coordinator struct {
	config   Config
	game     *game.Controller
	registry *registry.Registry
	notifier *notify.Notifier
	storage  storage.Storage
	auth     *auth.Service
	clock    clock.Clock
	logger   *slog.Logger

	inbox   chan event
	done    chan struct{}
	stopped chan struct{}

	// Owned by the Run loop
	conns    map[string]notify.Connection
	autoCall clock.Ticker
	ctx      context.Context

	archiving sync.WaitGroup
}

// New creates a new Coordinator. Run must be called for it to process events.
func New(
	config Config,
	game *game.Controller,
	registry *registry.Registry,
	notifier *notify.Notifier,
	storage storage.Storage,
	clock clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	if config.MailboxSize <= 0 {
		config.MailboxSize = DefaultConfig().MailboxSize
	}
	return &Coordinator{
		config:   config,
		game:     game,
		registry: registry,
		notifier: notifier,
		storage:  storage,
		auth:     auth.New(auth.Config{Password: config.AdminPassword, PasswordHash: config.AdminPasswordHash}),
		clock:    clock,
		logger:   logger.With(slog.String("component", "coordinator")),
		inbox:    make(chan event, config.MailboxSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		conns:    make(map[string]notify.Connection),
	}
}

// Run processes events until ctx is cancelled. Both timers are stopped and
// every open connection is closed before it returns.
func (c *Coordinator) Run(ctx context.Context) error {
	c.ctx = ctx
	heartbeat := c.clock.NewTicker(c.config.HeartbeatInterval)

	c.logger.Info("coordinator started",
		slog.Duration("heartbeat_interval", c.config.HeartbeatInterval),
		slog.Duration("heartbeat_timeout", c.config.HeartbeatTimeout))

	defer func() {
		heartbeat.Stop()
		c.stopAutoCall()
		close(c.done)
		c.closeAll()
		c.archiving.Wait()
		c.logger.Info("coordinator stopped")
		close(c.stopped)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.inbox:
			c.safely(ev.name(), func() { ev.apply(c) })
		case <-heartbeat.C():
			c.safely("heartbeat", c.heartbeat)
		case <-c.autoCallC():
			c.safely("auto_call", c.autoCallTick)
		}
	}
}

// Done is closed once Run has closed every connection and finished
// pending archive writes
func (c *Coordinator) Done() <-chan struct{} {
	return c.stopped
}

// Attach announces a new connection
func (c *Coordinator) Attach(conn notify.Connection) error {
	return c.submit(context.Background(), attachEvent{conn: conn})
}

// HandleMessage decodes a raw payload from conn and queues it for dispatch.
// Decode failures are reported back to conn by the loop.
func (c *Coordinator) HandleMessage(conn notify.Connection, data []byte) error {
	msg, err := protocol.Decode(data)
	return c.submit(context.Background(), messageEvent{conn: conn, msg: msg, err: err})
}

// Pong records a transport keepalive reply from conn
func (c *Coordinator) Pong(conn notify.Connection) error {
	return c.submit(context.Background(), pongEvent{conn: conn})
}

// Detach announces that conn has closed
func (c *Coordinator) Detach(conn notify.Connection) error {
	return c.submit(context.Background(), detachEvent{conn: conn})
}

// Snapshot returns the current read-only game view
func (c *Coordinator) Snapshot(ctx context.Context) (model.Snapshot, error) {
	reply := make(chan model.Snapshot, 1)
	if err := c.submit(ctx, snapshotQuery{reply: reply}); err != nil {
		return model.Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	case <-c.done:
		return model.Snapshot{}, model.ErrCoordinatorClosed
	}
}

func (c *Coordinator) submit(ctx context.Context, ev event) error {
	select {
	case <-c.done:
		return model.ErrCoordinatorClosed
	default:
	}
	select {
	case c.inbox <- ev:
		return nil
	case <-c.done:
		return model.ErrCoordinatorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// safely runs fn, logging instead of propagating a panic
func (c *Coordinator) safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in event handler",
				slog.String("event", name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}

// Auto-call

func (c *Coordinator) autoCallC() <-chan time.Time {
	if c.autoCall == nil {
		return nil
	}
	return c.autoCall.C()
}

func (c *Coordinator) startAutoCall() {
	if c.autoCall != nil {
		return
	}
	c.autoCall = c.clock.NewTicker(c.config.AutoCallInterval)
	c.logger.Info("auto-call enabled", slog.Duration("interval", c.config.AutoCallInterval))
}

func (c *Coordinator) stopAutoCall() {
	if c.autoCall == nil {
		return
	}
	c.autoCall.Stop()
	c.autoCall = nil
	c.logger.Info("auto-call disabled")
}

func (c *Coordinator) autoCallTick() {
	if c.game.Phase() != model.PhasePlaying {
		return
	}
	if err := c.callNumber(); err != nil {
		c.logger.Debug("auto-call draw skipped", slog.Any("error", err))
	}
}

// Heartbeat

func (c *Coordinator) heartbeat() {
	for _, conn := range c.registry.LiveConns() {
		if err := conn.Ping(); err != nil {
			c.logger.Debug("keepalive ping failed",
				slog.String("conn_id", conn.ID()),
				slog.Any("error", err))
		}
	}

	pruned := c.registry.Sweep(c.clock.Now(), c.config.HeartbeatTimeout)
	if len(pruned) == 0 {
		return
	}
	for _, p := range pruned {
		if p.Conn != nil {
			c.notifier.Close(p.Conn, notify.CloseGoingAway, "heartbeat timeout")
		}
		c.sendAdmin(protocol.NewPlayerLeft(p.Player, true))
	}
	c.sendAdmin(protocol.NewPlayersUpdate(c.registry.Players()))
}

// Archive

func (c *Coordinator) archive(summary model.RoundSummary) {
	if c.storage == nil {
		return
	}
	parent := context.Background()
	if c.ctx != nil {
		parent = context.WithoutCancel(c.ctx)
	}

	c.archiving.Add(1)
	go func() {
		defer c.archiving.Done()
		ctx, cancel := context.WithTimeout(parent, c.config.ArchiveTimeout)
		defer cancel()
		if err := c.storage.SaveRound(ctx, summary); err != nil {
			c.logger.Error("failed to archive round",
				slog.Int("round", summary.Round),
				slog.Any("error", err))
			return
		}
		c.logger.Info("round archived", slog.Int("round", summary.Round))
	}()
}

func (c *Coordinator) closeAll() {
	for id, conn := range c.conns {
		c.notifier.Close(conn, notify.CloseGoingAway, "server shutting down")
		delete(c.conns, id)
	}
}

// Delivery helpers

func (c *Coordinator) sendAdmin(msg any) {
	c.notifier.Send(c.registry.Admin(), msg)
}

func (c *Coordinator) broadcastPlayers(msg any) {
	c.notifier.Broadcast(c.registry.ConnectedConns(), msg)
}

// broadcastAll reaches every player and the admin, each once
func (c *Coordinator) broadcastAll(msg any) {
	c.notifier.Broadcast(c.registry.LiveConns(), msg)
}

// sendAdminSnapshot brings a freshly authenticated admin up to date
func (c *Coordinator) sendAdminSnapshot(conn notify.Connection) {
	c.notifier.Send(conn, protocol.NewGameState(c.game.Session(), c.registry.Count(), nil))
	c.notifier.Send(conn, protocol.NewPlayersUpdate(c.registry.Players()))
	c.notifier.Send(conn, protocol.NewWinnersUpdate(c.game.Winners()))
	c.notifier.Send(conn, protocol.NewFinanceUpdate(c.game.Finance()))
}

func (c *Coordinator) callNumber() error {
	n, err := c.game.CallNumber()
	if err != nil {
		return err
	}
	called := c.game.Session().CalledNumbers
	c.broadcastPlayers(protocol.NewNumberCalled(n, called))
	c.sendAdmin(protocol.NewCalledNumbers(called, n))
	return nil
}
