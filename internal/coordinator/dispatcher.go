package coordinator

import (
	"errors"
	"log/slog"

	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/notify"
	"github.com/mcoot/bingohall/internal/protocol"
	"github.com/mcoot/bingohall/internal/services/registry"
)

// dispatcher handles one inbound message on behalf of the connection that sent it
type dispatcher struct {
	c    *Coordinator
	conn notify.Connection
}

// Ensure every inbound variant has a handler
var _ protocol.Handler = (*dispatcher)(nil)

func (d *dispatcher) AdminAuth(msg protocol.AdminAuth) error {
	c := d.c
	if !c.auth.Verify(msg.Password) {
		c.logger.Warn("admin authentication failed", slog.String("conn_id", d.conn.ID()))
		c.notifier.Send(d.conn, protocol.NewAuthFailed(model.ErrInvalidPassword.Error()))
		c.notifier.Close(d.conn, notify.ClosePolicyViolation, model.ErrInvalidPassword.Error())
		return nil
	}

	if prev := c.registry.SetAdmin(d.conn); prev != nil {
		c.logger.Info("admin replaced", slog.String("previous_conn_id", prev.ID()))
		c.notifier.Close(prev, notify.CloseNormal, "admin replaced")
	}
	c.logger.Info("admin authenticated", slog.String("conn_id", d.conn.ID()))

	c.notifier.Send(d.conn, protocol.NewAuthSuccess())
	c.sendAdminSnapshot(d.conn)
	return nil
}

func (d *dispatcher) PlayerConnect(msg protocol.PlayerConnect) error {
	c := d.c
	if msg.PlayerID == "" {
		return model.ErrMissingPlayerID
	}

	player, reconnected := c.registry.Connect(msg.PlayerID, msg.PlayerName, d.conn, c.clock.Now())
	c.logger.Info("player connected",
		slog.String("player_id", string(player.ID)),
		slog.Bool("reconnected", reconnected))

	c.notifier.Send(d.conn, protocol.NewGameState(c.game.Session(), c.registry.Count(), &player))
	c.sendAdmin(protocol.NewPlayerJoined(player, reconnected))
	c.sendAdmin(protocol.NewPlayersUpdate(c.registry.Players()))
	return nil
}

func (d *dispatcher) PlayerRegister(msg protocol.PlayerRegister) error {
	c := d.c
	player, err := c.game.Register(msg.PlayerID, registry.Details{
		Name:      msg.Name,
		Phone:     msg.Phone,
		Stake:     int64(msg.Stake),
		BoardType: msg.BoardType,
		BoardID:   msg.BoardID,
	}, d.conn)
	if err != nil {
		return err
	}

	c.notifier.Send(d.conn, protocol.NewRegistrationSuccess(player))
	c.sendAdmin(protocol.NewPlayersUpdate(c.registry.Players()))
	c.sendAdmin(protocol.NewFinanceUpdate(c.game.Finance()))
	return nil
}

func (d *dispatcher) MarkNumber(msg protocol.MarkNumber) error {
	c := d.c
	number := int(msg.Number)
	marks, err := c.game.MarkNumber(msg.PlayerID, number)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	c.notifier.Send(d.conn, protocol.NewNumberMarked(number, marks))
	return nil
}

func (d *dispatcher) ClaimWin(msg protocol.ClaimWin) error {
	c := d.c
	winner, err := c.game.ClaimWin(msg.PlayerID, msg.BoardType)
	if err != nil {
		return err
	}

	c.broadcastPlayers(protocol.NewWinnerDeclared(winner))
	c.sendAdmin(protocol.NewWinnersUpdate(c.game.Winners()))
	c.sendAdmin(protocol.NewFinanceUpdate(c.game.Finance()))
	c.notifier.Send(d.conn, protocol.NewWinConfirmed(winner))
	return nil
}

func (d *dispatcher) StartGame(protocol.StartGame) error {
	c := d.c
	if err := c.game.Start(); err != nil {
		return err
	}

	c.broadcastAll(protocol.NewPhaseChanged(protocol.TypeGameStarted, c.game.Session()))
	c.sendAdmin(protocol.NewCalledNumbers(nil, 0))
	c.sendAdmin(protocol.NewPlayersUpdate(c.registry.Players()))
	return nil
}

func (d *dispatcher) PauseGame(protocol.PauseGame) error {
	c := d.c
	phase, err := c.game.TogglePause()
	if err != nil {
		return err
	}

	msgType := protocol.TypeGamePaused
	if phase == model.PhasePlaying {
		msgType = protocol.TypeGameResumed
	}
	c.broadcastAll(protocol.NewPhaseChanged(msgType, c.game.Session()))
	return nil
}

func (d *dispatcher) EndGame(protocol.EndGame) error {
	c := d.c
	summary, err := c.game.End()
	if err != nil {
		return err
	}
	c.stopAutoCall()

	c.broadcastAll(protocol.NewPhaseChanged(protocol.TypeGameEnded, c.game.Session()))
	c.sendAdmin(protocol.NewWinnersUpdate(c.game.Winners()))
	c.sendAdmin(protocol.NewFinanceUpdate(c.game.Finance()))
	c.archive(summary)
	return nil
}

func (d *dispatcher) CallNumber(protocol.CallNumber) error {
	return d.c.callNumber()
}

func (d *dispatcher) ClearNumbers(protocol.ClearNumbers) error {
	c := d.c
	c.game.ClearNumbers()
	c.broadcastAll(protocol.NewCalledNumbers(nil, 0))
	return nil
}

func (d *dispatcher) ToggleAutoCall(msg protocol.ToggleAutoCall) error {
	c := d.c
	if msg.Enabled {
		c.startAutoCall()
	} else {
		c.stopAutoCall()
	}
	c.game.SetAutoCall(msg.Enabled)

	c.sendAdmin(protocol.NewGameState(c.game.Session(), c.registry.Count(), nil))
	return nil
}

func (d *dispatcher) Ping(msg protocol.Ping) error {
	c := d.c
	now := c.clock.Now()
	if msg.PlayerID == "" || !c.registry.Touch(msg.PlayerID, now) {
		c.registry.TouchConn(d.conn, now)
	}
	c.notifier.Send(d.conn, protocol.NewPong(now))
	return nil
}
