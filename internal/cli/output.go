package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case Snapshot:
		o.printSnapshot(v)
	case RoundsResult:
		o.printRounds(v)
	case AdminResult:
		o.printAdminResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

// Snapshot response type (matches GET /api/v1/state)
type Snapshot struct {
	Status        string `json:"status"`
	CalledNumbers []int  `json:"calledNumbers"`
	CurrentNumber int    `json:"currentNumber"`
	PlayerCount   int    `json:"playerCount"`
	AutoCall      bool   `json:"autoCall"`
}

// Winner response type
type Winner struct {
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Finance response type
type Finance struct {
	TotalIncome    int64 `json:"totalIncome"`
	TotalPayout    int64 `json:"totalPayout"`
	CurrentBalance int64 `json:"currentBalance"`
}

// Round response type
type Round struct {
	Round         int       `json:"round"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	CalledNumbers []int     `json:"calledNumbers"`
	Winners       []Winner  `json:"winners"`
	Finance       Finance   `json:"finance"`
	PlayerCount   int       `json:"playerCount"`
}

// RoundsResult response type
type RoundsResult struct {
	Rounds []Round `json:"rounds"`
}

// AdminResult is the server's confirmation of an admin command
type AdminResult struct {
	Type          string `json:"type"`
	Status        string `json:"status,omitempty"`
	Round         int    `json:"round,omitempty"`
	CalledNumbers []int  `json:"calledNumbers,omitempty"`
	CurrentNumber int    `json:"currentNumber,omitempty"`
	AutoCall      *bool  `json:"autoCall,omitempty"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}

func (o *Output) printSnapshot(s Snapshot) {
	fmt.Fprintf(o.w, "Status: %s\n", s.Status)
	fmt.Fprintf(o.w, "Players: %d\n", s.PlayerCount)
	fmt.Fprintf(o.w, "Auto-call: %s\n", onOff(s.AutoCall))
	if s.CurrentNumber != 0 {
		fmt.Fprintf(o.w, "Current Number: %d\n", s.CurrentNumber)
	}
	fmt.Fprintf(o.w, "Called (%d): %s\n", len(s.CalledNumbers), joinInts(s.CalledNumbers))
}

func (o *Output) printRounds(r RoundsResult) {
	if len(r.Rounds) == 0 {
		fmt.Fprintln(o.w, "No rounds archived")
		return
	}
	for _, round := range r.Rounds {
		fmt.Fprintf(o.w, "Round %d: %s - %s\n", round.Round,
			round.StartedAt.Format(time.DateTime), round.EndedAt.Format(time.DateTime))
		fmt.Fprintf(o.w, "  Players: %d, Numbers called: %d\n", round.PlayerCount, len(round.CalledNumbers))
		fmt.Fprintf(o.w, "  Income: %d, Payout: %d, Balance: %d\n",
			round.Finance.TotalIncome, round.Finance.TotalPayout, round.Finance.CurrentBalance)
		for _, w := range round.Winners {
			fmt.Fprintf(o.w, "  - %s (%s): %s, %d\n", w.Name, w.PlayerID, w.Pattern, w.Amount)
		}
	}
}

func (o *Output) printAdminResult(a AdminResult) {
	switch a.Type {
	case "game_started":
		fmt.Fprintf(o.w, "Round %d started\n", a.Round)
	case "game_paused":
		fmt.Fprintln(o.w, "Game paused")
	case "game_resumed":
		fmt.Fprintln(o.w, "Game resumed")
	case "game_ended":
		fmt.Fprintf(o.w, "Round %d ended\n", a.Round)
	case "called_numbers":
		if len(a.CalledNumbers) == 0 {
			fmt.Fprintln(o.w, "Called numbers cleared")
			return
		}
		fmt.Fprintf(o.w, "Called: %d\n", a.CurrentNumber)
		fmt.Fprintf(o.w, "Called so far (%d): %s\n", len(a.CalledNumbers), joinInts(a.CalledNumbers))
	case "game_state":
		enabled := a.AutoCall != nil && *a.AutoCall
		fmt.Fprintf(o.w, "Auto-call: %s\n", onOff(enabled))
	default:
		o.printJSON(a)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
