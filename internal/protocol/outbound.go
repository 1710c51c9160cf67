package protocol

import (
	"encoding/json"
	"time"

	"github.com/mcoot/bingohall/internal/model"
)

// Outbound message types
const (
	TypeAuthSuccess         = "auth_success"
	TypeAuthFailed          = "auth_failed"
	TypeGameState           = "game_state"
	TypePlayerJoined        = "player_joined"
	TypePlayerLeft          = "player_left"
	TypeRegistrationSuccess = "registration_success"
	TypeNumberMarked        = "number_marked"
	TypeWinnerDeclared      = "winner_declared"
	TypeWinConfirmed        = "win_confirmed"
	TypeGameStarted         = "game_started"
	TypeGamePaused          = "game_paused"
	TypeGameResumed         = "game_resumed"
	TypeGameEnded           = "game_ended"
	TypeNumberCalled        = "number_called"
	TypeCalledNumbers       = "called_numbers"
	TypePlayersUpdate       = "players_update"
	TypeWinnersUpdate       = "winners_update"
	TypeFinanceUpdate       = "finance_update"
	TypePong                = "pong"
	TypeError               = "error"
)

// Encode serializes an outbound message
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// PlayerView is the wire form of a player
type PlayerView struct {
	ID            model.PlayerID  `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	Stake         int64           `json:"stake"`
	BoardType     model.BoardType `json:"boardType,omitempty"`
	BoardID       string          `json:"boardId,omitempty"`
	Registered    bool            `json:"registered"`
	Connected     bool            `json:"connected"`
	MarkedNumbers []int           `json:"markedNumbers"`
	LastPing      int64           `json:"lastPing"`
}

// WinnerView is the wire form of a winner record
type WinnerView struct {
	PlayerID  model.PlayerID `json:"playerId"`
	Name      string         `json:"name"`
	Pattern   string         `json:"pattern"`
	Amount    int64          `json:"amount"`
	Round     int            `json:"round"`
	Timestamp int64          `json:"timestamp"`
}

// FinanceView is the wire form of the ledger
type FinanceView struct {
	TotalIncome    int64 `json:"totalIncome"`
	TotalPayout    int64 `json:"totalPayout"`
	CurrentBalance int64 `json:"currentBalance"`
}

// NewPlayerView converts a player for the wire
func NewPlayerView(p model.Player) PlayerView {
	marked := p.MarkedNumbers
	if marked == nil {
		marked = []int{}
	}
	return PlayerView{
		ID:            p.ID,
		Name:          p.Name,
		Phone:         p.Phone,
		Stake:         p.Stake,
		BoardType:     p.BoardType,
		BoardID:       p.BoardID,
		Registered:    p.Registered,
		Connected:     p.Connected,
		MarkedNumbers: marked,
		LastPing:      millis(p.LastPing),
	}
}

// NewWinnerView converts a winner for the wire
func NewWinnerView(w model.Winner) WinnerView {
	return WinnerView{
		PlayerID:  w.PlayerID,
		Name:      w.Name,
		Pattern:   w.Pattern,
		Amount:    w.Amount,
		Round:     w.Round,
		Timestamp: millis(w.Timestamp),
	}
}

// NewFinanceView converts the ledger for the wire
func NewFinanceView(f model.Finance) FinanceView {
	return FinanceView{
		TotalIncome:    f.TotalIncome,
		TotalPayout:    f.TotalPayout,
		CurrentBalance: f.CurrentBalance,
	}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func numbers(n []int) []int {
	if n == nil {
		return []int{}
	}
	return n
}

// AuthSuccess confirms admin authority
type AuthSuccess struct {
	Type string `json:"type"`
}

// AuthFailed rejects an admin_auth attempt
type AuthFailed struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GameState is the full state sent on connect and to a fresh admin
type GameState struct {
	Type          string      `json:"type"`
	Status        model.Phase `json:"status"`
	CalledNumbers []int       `json:"calledNumbers"`
	CurrentNumber int         `json:"currentNumber"`
	AutoCall      bool        `json:"autoCall"`
	PlayerCount   int         `json:"playerCount"`
	Round         int         `json:"round"`
	Player        *PlayerView `json:"player,omitempty"`
}

// PlayerJoined tells the admin a player connected
type PlayerJoined struct {
	Type        string     `json:"type"`
	Player      PlayerView `json:"player"`
	Reconnected bool       `json:"reconnected"`
}

// PlayerLeft tells the admin a player disconnected or was pruned
type PlayerLeft struct {
	Type     string         `json:"type"`
	PlayerID model.PlayerID `json:"playerId"`
	Name     string         `json:"name"`
	Pruned   bool           `json:"pruned"`
}

// RegistrationSuccess confirms player_register
type RegistrationSuccess struct {
	Type   string     `json:"type"`
	Player PlayerView `json:"player"`
}

// NumberMarked confirms mark_number
type NumberMarked struct {
	Type          string `json:"type"`
	Number        int    `json:"number"`
	MarkedNumbers []int  `json:"markedNumbers"`
}

// WinnerDeclared announces a winner to every player
type WinnerDeclared struct {
	Type   string     `json:"type"`
	Winner WinnerView `json:"winner"`
}

// WinConfirmed tells the claimant their claim succeeded
type WinConfirmed struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
	Amount  int64  `json:"amount"`
}

// PhaseChanged covers game_started, game_paused, game_resumed and game_ended
type PhaseChanged struct {
	Type   string      `json:"type"`
	Status model.Phase `json:"status"`
	Round  int         `json:"round"`
}

// NumberCalled announces a draw to every player
type NumberCalled struct {
	Type          string `json:"type"`
	Number        int    `json:"number"`
	CalledNumbers []int  `json:"calledNumbers"`
}

// CalledNumbers is the admin's view of the called sequence
type CalledNumbers struct {
	Type          string `json:"type"`
	CalledNumbers []int  `json:"calledNumbers"`
	CurrentNumber int    `json:"currentNumber"`
}

// PlayersUpdate is the admin's player list
type PlayersUpdate struct {
	Type    string       `json:"type"`
	Players []PlayerView `json:"players"`
}

// WinnersUpdate is the admin's winner list
type WinnersUpdate struct {
	Type    string       `json:"type"`
	Winners []WinnerView `json:"winners"`
}

// FinanceUpdate is the admin's ledger
type FinanceUpdate struct {
	Type    string      `json:"type"`
	Finance FinanceView `json:"finance"`
}

// Pong answers ping
type Pong struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// Error reports a failed request to its sender
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewAuthSuccess() AuthSuccess {
	return AuthSuccess{Type: TypeAuthSuccess}
}

func NewAuthFailed(message string) AuthFailed {
	return AuthFailed{Type: TypeAuthFailed, Message: message}
}

// NewGameState builds a game_state message. player may be nil.
func NewGameState(s model.Session, playerCount int, player *model.Player) GameState {
	msg := GameState{
		Type:          TypeGameState,
		Status:        s.Phase,
		CalledNumbers: numbers(s.CalledNumbers),
		CurrentNumber: s.CurrentNumber,
		AutoCall:      s.AutoCall,
		PlayerCount:   playerCount,
		Round:         s.Round,
	}
	if player != nil {
		view := NewPlayerView(*player)
		msg.Player = &view
	}
	return msg
}

func NewPlayerJoined(p model.Player, reconnected bool) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, Player: NewPlayerView(p), Reconnected: reconnected}
}

func NewPlayerLeft(p model.Player, pruned bool) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, PlayerID: p.ID, Name: p.Name, Pruned: pruned}
}

func NewRegistrationSuccess(p model.Player) RegistrationSuccess {
	return RegistrationSuccess{Type: TypeRegistrationSuccess, Player: NewPlayerView(p)}
}

func NewNumberMarked(number int, marked []int) NumberMarked {
	return NumberMarked{Type: TypeNumberMarked, Number: number, MarkedNumbers: numbers(marked)}
}

func NewWinnerDeclared(w model.Winner) WinnerDeclared {
	return WinnerDeclared{Type: TypeWinnerDeclared, Winner: NewWinnerView(w)}
}

func NewWinConfirmed(w model.Winner) WinConfirmed {
	return WinConfirmed{Type: TypeWinConfirmed, Pattern: w.Pattern, Amount: w.Amount}
}

// NewPhaseChanged builds the message announcing a transition.
// msgType is one of TypeGameStarted, TypeGamePaused, TypeGameResumed, TypeGameEnded.
func NewPhaseChanged(msgType string, s model.Session) PhaseChanged {
	return PhaseChanged{Type: msgType, Status: s.Phase, Round: s.Round}
}

func NewNumberCalled(number int, called []int) NumberCalled {
	return NumberCalled{Type: TypeNumberCalled, Number: number, CalledNumbers: numbers(called)}
}

func NewCalledNumbers(called []int, current int) CalledNumbers {
	return CalledNumbers{Type: TypeCalledNumbers, CalledNumbers: numbers(called), CurrentNumber: current}
}

func NewPlayersUpdate(players []model.Player) PlayersUpdate {
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, NewPlayerView(p))
	}
	return PlayersUpdate{Type: TypePlayersUpdate, Players: views}
}

func NewWinnersUpdate(winners []model.Winner) WinnersUpdate {
	views := make([]WinnerView, 0, len(winners))
	for _, w := range winners {
		views = append(views, NewWinnerView(w))
	}
	return WinnersUpdate{Type: TypeWinnersUpdate, Winners: views}
}

func NewFinanceUpdate(f model.Finance) FinanceUpdate {
	return FinanceUpdate{Type: TypeFinanceUpdate, Finance: NewFinanceView(f)}
}

func NewPong(now time.Time) Pong {
	return Pong{Type: TypePong, Timestamp: now.UnixMilli()}
}

func NewError(message string) Error {
	return Error{Type: TypeError, Message: message}
}
