package coordinator

import (
	"errors"
	"log/slog"

	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/notify"
	"github.com/mcoot/bingohall/internal/protocol"
)

// event is something the Run loop applies to coordinator state
type event interface {
	name() string
	apply(c *Coordinator)
}

type attachEvent struct {
	conn notify.Connection
}

func (attachEvent) name() string { return "attach" }

func (e attachEvent) apply(c *Coordinator) {
	c.conns[e.conn.ID()] = e.conn
	c.logger.Debug("connection attached",
		slog.String("conn_id", e.conn.ID()),
		slog.Int("open_connections", len(c.conns)))
}

type detachEvent struct {
	conn notify.Connection
}

func (detachEvent) name() string { return "detach" }

func (e detachEvent) apply(c *Coordinator) {
	delete(c.conns, e.conn.ID())

	if c.registry.ClearAdmin(e.conn) {
		c.logger.Info("admin disconnected", slog.String("conn_id", e.conn.ID()))
	}

	player, ok := c.registry.Disconnect(e.conn)
	if !ok {
		return
	}
	c.logger.Info("player disconnected", slog.String("player_id", string(player.ID)))
	c.sendAdmin(protocol.NewPlayerLeft(player, false))
	c.sendAdmin(protocol.NewPlayersUpdate(c.registry.Players()))
}

type pongEvent struct {
	conn notify.Connection
}

func (pongEvent) name() string { return "pong" }

func (e pongEvent) apply(c *Coordinator) {
	c.registry.TouchConn(e.conn, c.clock.Now())
}

type snapshotQuery struct {
	reply chan<- model.Snapshot
}

func (snapshotQuery) name() string { return "snapshot" }

func (e snapshotQuery) apply(c *Coordinator) {
	e.reply <- c.game.Snapshot()
}

// messageEvent carries a decoded inbound message, or the error that
// prevented decoding it
type messageEvent struct {
	conn notify.Connection
	msg  protocol.Inbound
	err  error
}

func (e messageEvent) name() string {
	if e.msg == nil {
		return "message"
	}
	return e.msg.Type()
}

func (e messageEvent) apply(c *Coordinator) {
	if e.err != nil {
		c.logger.Debug("rejected inbound message",
			slog.String("conn_id", e.conn.ID()),
			slog.Any("error", e.err))
		c.reportError(e.conn, e.err)
		return
	}

	if e.msg.AdminOnly() && !c.registry.IsAdmin(e.conn) {
		c.logger.Warn("admin command from non-admin connection",
			slog.String("conn_id", e.conn.ID()),
			slog.String("type", e.msg.Type()))
		c.notifier.SendError(e.conn, model.ErrNotAdmin)
		return
	}

	d := &dispatcher{c: c, conn: e.conn}
	if err := e.msg.Dispatch(d); err != nil {
		c.logger.Debug("message handler failed",
			slog.String("conn_id", e.conn.ID()),
			slog.String("type", e.msg.Type()),
			slog.Any("error", err))
		c.reportError(e.conn, err)
	}
}

// reportError sends err to conn. Undecodable payloads get the generic
// message; classified errors their own text.
func (c *Coordinator) reportError(conn notify.Connection, err error) {
	switch {
	case errors.Is(err, model.ErrMalformedMessage):
		c.notifier.SendError(conn, model.ErrMalformedMessage)
	case model.KindOf(err) != "":
		c.notifier.SendError(conn, err)
	default:
		c.logger.Error("unclassified handler error", slog.Any("error", err))
		c.notifier.Send(conn, protocol.NewError("internal error"))
	}
}
