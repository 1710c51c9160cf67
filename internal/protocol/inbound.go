// Package protocol defines the JSON messages exchanged with players and the admin
// over the websocket. Every message is an object with a "type" discriminator.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcoot/bingohall/internal/model"
)

// Inbound message types
const (
	TypeAdminAuth      = "admin_auth"
	TypePlayerConnect  = "player_connect"
	TypePlayerRegister = "player_register"
	TypeMarkNumber     = "mark_number"
	TypeClaimWin       = "claim_win"
	TypeStartGame      = "start_game"
	TypePauseGame      = "pause_game"
	TypeEndGame        = "end_game"
	TypeCallNumber     = "call_number"
	TypeClearNumbers   = "clear_numbers"
	TypeToggleAutoCall = "toggle_auto_call"
	TypePing           = "ping"
)

// Handler receives decoded inbound messages, one method per variant.
// Implementations must handle every variant; adding a variant here breaks
// any implementation that does not.
type Handler interface {
	AdminAuth(msg AdminAuth) error
	PlayerConnect(msg PlayerConnect) error
	PlayerRegister(msg PlayerRegister) error
	MarkNumber(msg MarkNumber) error
	ClaimWin(msg ClaimWin) error
	StartGame(msg StartGame) error
	PauseGame(msg PauseGame) error
	EndGame(msg EndGame) error
	CallNumber(msg CallNumber) error
	ClearNumbers(msg ClearNumbers) error
	ToggleAutoCall(msg ToggleAutoCall) error
	Ping(msg Ping) error
}

// Inbound is the closed set of messages a client may send
type Inbound interface {
	// Type returns the wire discriminator
	Type() string
	// Dispatch calls the Handler method for this variant
	Dispatch(h Handler) error
	// AdminOnly reports whether the sender must hold admin authority
	AdminOnly() bool
}

// AdminAuth requests admin authority for the sending connection
type AdminAuth struct {
	Password string `json:"password"`
}

// PlayerConnect binds the sending connection to a player id
type PlayerConnect struct {
	PlayerID   model.PlayerID `json:"playerId"`
	PlayerName string         `json:"playerName"`
}

// PlayerRegister records a player's details and stake
type PlayerRegister struct {
	PlayerID  model.PlayerID  `json:"playerId"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Stake     Int             `json:"stake"`
	BoardType model.BoardType `json:"boardType"`
	BoardID   string          `json:"boardId,omitempty"`
}

// MarkNumber marks a number on the player's board
type MarkNumber struct {
	PlayerID model.PlayerID `json:"playerId"`
	Number   Int            `json:"number"`
}

// ClaimWin asks for the player's marks to be evaluated
type ClaimWin struct {
	PlayerID  model.PlayerID  `json:"playerId"`
	BoardType model.BoardType `json:"boardType"`
}

// StartGame starts (or restarts) a round
type StartGame struct{}

// PauseGame toggles between playing and paused
type PauseGame struct{}

// EndGame ends the current round
type EndGame struct{}

// CallNumber draws the next number
type CallNumber struct{}

// ClearNumbers clears the called numbers of the current round
type ClearNumbers struct{}

// ToggleAutoCall enables or disables timed calling
type ToggleAutoCall struct {
	Enabled bool `json:"enabled"`
}

// Ping is an application-level heartbeat
type Ping struct {
	PlayerID model.PlayerID `json:"playerId,omitempty"`
}

func (AdminAuth) Type() string      { return TypeAdminAuth }
func (PlayerConnect) Type() string  { return TypePlayerConnect }
func (PlayerRegister) Type() string { return TypePlayerRegister }
func (MarkNumber) Type() string     { return TypeMarkNumber }
func (ClaimWin) Type() string       { return TypeClaimWin }
func (StartGame) Type() string      { return TypeStartGame }
func (PauseGame) Type() string      { return TypePauseGame }
func (EndGame) Type() string        { return TypeEndGame }
func (CallNumber) Type() string     { return TypeCallNumber }
func (ClearNumbers) Type() string   { return TypeClearNumbers }
func (ToggleAutoCall) Type() string { return TypeToggleAutoCall }
func (Ping) Type() string           { return TypePing }

func (m AdminAuth) Dispatch(h Handler) error      { return h.AdminAuth(m) }
func (m PlayerConnect) Dispatch(h Handler) error  { return h.PlayerConnect(m) }
func (m PlayerRegister) Dispatch(h Handler) error { return h.PlayerRegister(m) }
func (m MarkNumber) Dispatch(h Handler) error     { return h.MarkNumber(m) }
func (m ClaimWin) Dispatch(h Handler) error       { return h.ClaimWin(m) }
func (m StartGame) Dispatch(h Handler) error      { return h.StartGame(m) }
func (m PauseGame) Dispatch(h Handler) error      { return h.PauseGame(m) }
func (m EndGame) Dispatch(h Handler) error        { return h.EndGame(m) }
func (m CallNumber) Dispatch(h Handler) error     { return h.CallNumber(m) }
func (m ClearNumbers) Dispatch(h Handler) error   { return h.ClearNumbers(m) }
func (m ToggleAutoCall) Dispatch(h Handler) error { return h.ToggleAutoCall(m) }
func (m Ping) Dispatch(h Handler) error           { return h.Ping(m) }

func (AdminAuth) AdminOnly() bool      { return false }
func (PlayerConnect) AdminOnly() bool  { return false }
func (PlayerRegister) AdminOnly() bool { return false }
func (MarkNumber) AdminOnly() bool     { return false }
func (ClaimWin) AdminOnly() bool       { return false }
func (StartGame) AdminOnly() bool      { return true }
func (PauseGame) AdminOnly() bool      { return true }
func (EndGame) AdminOnly() bool        { return true }
func (CallNumber) AdminOnly() bool     { return true }
func (ClearNumbers) AdminOnly() bool   { return true }
func (ToggleAutoCall) AdminOnly() bool { return true }
func (Ping) AdminOnly() bool           { return false }

var decoders = map[string]func([]byte) (Inbound, error){
	TypeAdminAuth:      decodeAs[AdminAuth],
	TypePlayerConnect:  decodeAs[PlayerConnect],
	TypePlayerRegister: decodeAs[PlayerRegister],
	TypeMarkNumber:     decodeAs[MarkNumber],
	TypeClaimWin:       decodeAs[ClaimWin],
	TypeStartGame:      decodeAs[StartGame],
	TypePauseGame:      decodeAs[PauseGame],
	TypeEndGame:        decodeAs[EndGame],
	TypeCallNumber:     decodeAs[CallNumber],
	TypeClearNumbers:   decodeAs[ClearNumbers],
	TypeToggleAutoCall: decodeAs[ToggleAutoCall],
	TypePing:           decodeAs[Ping],
}

// Decode parses a raw payload into its inbound variant.
// Undecodable payloads return model.ErrMalformedMessage, unknown types
// model.ErrUnknownMessage.
func Decode(data []byte) (Inbound, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrMalformedMessage, err.Error())
	}

	decode, ok := decoders[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownMessage, envelope.Type)
	}
	return decode(data)
}

func decodeAs[T Inbound](data []byte) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrMalformedMessage, err.Error())
	}
	return msg, nil
}

// Int is an integer that browsers may send either as a JSON number or as a
// numeric string (form inputs)
type Int int64

// UnmarshalJSON accepts 50, 50.0, "50" and null
func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
		if len(bytes.TrimSpace(data)) == 0 {
			*i = 0
			return nil
		}
	}
	if n, err := strconv.ParseInt(string(bytes.TrimSpace(data)), 10, 64); err == nil {
		*i = Int(n)
		return nil
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s", string(data))
	}
	if f != float64(int64(f)) {
		return fmt.Errorf("invalid integer %s", string(data))
	}
	*i = Int(int64(f))
	return nil
}
