package notify

import (
	"log/slog"

	"github.com/mcoot/bingohall/internal/protocol"
)

// Close codes used when the server ends a connection
const (
	CloseNormal          = 1000
	CloseGoingAway       = 1001
	ClosePolicyViolation = 1008
)

// Connection is a live transport handle for one participant
type Connection interface {
	// ID uniquely identifies the connection for its lifetime
	ID() string

	// Send queues an encoded message. Returns a transport error if the
	// connection is closed or its buffer is full.
	Send(data []byte) error

	// Ping sends a transport-level keepalive
	Ping() error

	// Close ends the connection with a close code and reason
	Close(code int, reason string) error
}

// Notifier encodes outbound messages and delivers them.
// Delivery failures are logged and discarded: there is no retry or queue.
type Notifier struct {
	logger *slog.Logger
}

// New creates a new Notifier
func New(logger *slog.Logger) *Notifier {
	return &Notifier{
		logger: logger.With(slog.String("component", "notify")),
	}
}

// Broadcast encodes msg once and sends it to every connection.
// Nil entries are skipped. Returns the number of successful deliveries.
func (n *Notifier) Broadcast(conns []Connection, msg any) int {
	if len(conns) == 0 {
		return 0
	}

	data, ok := n.encode(msg)
	if !ok {
		return 0
	}

	sentCount := 0
	droppedCount := 0
	for _, conn := range conns {
		if conn == nil {
			continue
		}
		if err := conn.Send(data); err != nil {
			droppedCount++
			n.logger.Debug("broadcast delivery failed",
				slog.String("conn_id", conn.ID()),
				slog.Any("error", err))
			continue
		}
		sentCount++
	}
	if droppedCount > 0 {
		n.logger.Debug("broadcast partial failure",
			slog.Int("sent", sentCount),
			slog.Int("dropped", droppedCount))
	}
	return sentCount
}

// Send delivers msg to a single connection. A nil connection is a no-op.
// Returns true if the message was queued.
func (n *Notifier) Send(conn Connection, msg any) bool {
	if conn == nil {
		return false
	}

	data, ok := n.encode(msg)
	if !ok {
		return false
	}

	if err := conn.Send(data); err != nil {
		n.logger.Debug("send failed",
			slog.String("conn_id", conn.ID()),
			slog.Any("error", err))
		return false
	}
	return true
}

// SendError reports a failed request to its sender
func (n *Notifier) SendError(conn Connection, err error) bool {
	return n.Send(conn, protocol.NewError(err.Error()))
}

// Close ends a connection, ignoring transport failures
func (n *Notifier) Close(conn Connection, code int, reason string) {
	if conn == nil {
		return
	}
	if err := conn.Close(code, reason); err != nil {
		n.logger.Debug("close failed",
			slog.String("conn_id", conn.ID()),
			slog.Any("error", err))
	}
}

func (n *Notifier) encode(msg any) ([]byte, bool) {
	data, err := protocol.Encode(msg)
	if err != nil {
		n.logger.Error("failed to encode message", slog.Any("error", err))
		return nil, false
	}
	return data, true
}
