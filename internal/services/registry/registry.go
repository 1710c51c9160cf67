package registry

import (
	"log/slog"
	"sort"
	"time"

	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/notify"
)

// member pairs a player record with its current transport handle
type member struct {
	player *model.Player
	conn   notify.Connection
}

// Details are the registration fields supplied by player_register
type Details struct {
	Name      string
	Phone     string
	Stake     int64
	BoardType model.BoardType
	BoardID   string
}

// Registry tracks players and the admin connection.
// It is not safe for concurrent use; the coordinator loop owns it.
type Registry struct {
	members map[model.PlayerID]*member
	conns   map[string]model.PlayerID
	admin   notify.Connection
	logger  *slog.Logger
}

// New creates an empty Registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		members: make(map[model.PlayerID]*member),
		conns:   make(map[string]model.PlayerID),
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Connect binds a connection to a player, creating the player on first
// connect. A known id keeps its record and only the handle is replaced.
// Returns a copy of the player and whether it already existed.
func (r *Registry) Connect(id model.PlayerID, name string, conn notify.Connection, now time.Time) (model.Player, bool) {
	m, ok := r.members[id]
	if !ok {
		m = &member{
			player: &model.Player{
				ID:            id,
				Name:          name,
				MarkedNumbers: []int{},
			},
		}
		r.members[id] = m
	}
	if name != "" {
		m.player.Name = name
	}
	r.bind(m, conn)
	m.player.Connected = true
	m.player.LastPing = now
	m.player.ConnectedAt = now

	r.logger.Debug("player connected",
		slog.String("player_id", string(id)),
		slog.Bool("reconnected", ok))
	return m.player.Clone(), ok
}

// Register records registration details. An unknown id is created and bound
// to conn. Returns a copy of the updated player.
func (r *Registry) Register(id model.PlayerID, details Details, conn notify.Connection, now time.Time) model.Player {
	m, ok := r.members[id]
	if !ok {
		m = &member{
			player: &model.Player{ID: id, MarkedNumbers: []int{}},
		}
		r.members[id] = m
	}
	if m.conn == nil && conn != nil {
		r.bind(m, conn)
		m.player.Connected = true
		m.player.ConnectedAt = now
	}

	p := m.player
	if details.Name != "" {
		p.Name = details.Name
	}
	p.Phone = details.Phone
	p.Stake = details.Stake
	p.BoardType = details.BoardType
	p.BoardID = details.BoardID
	p.Registered = true
	p.LastPing = now

	return p.Clone()
}

func (r *Registry) bind(m *member, conn notify.Connection) {
	if m.conn != nil {
		delete(r.conns, m.conn.ID())
	}
	m.conn = conn
	if conn != nil {
		// A connection speaks for one player at a time
		if prev, ok := r.conns[conn.ID()]; ok && prev != m.player.ID {
			if other, ok := r.members[prev]; ok {
				other.conn = nil
				other.player.Connected = false
			}
		}
		r.conns[conn.ID()] = m.player.ID
	}
}

// Get returns a copy of the player with the given id
func (r *Registry) Get(id model.PlayerID) (model.Player, bool) {
	m, ok := r.members[id]
	if !ok {
		return model.Player{}, false
	}
	return m.player.Clone(), true
}

// PlayerFor returns the id of the player bound to conn
func (r *Registry) PlayerFor(conn notify.Connection) (model.PlayerID, bool) {
	if conn == nil {
		return "", false
	}
	id, ok := r.conns[conn.ID()]
	return id, ok
}

// Mark adds a number to a player's marks. Returns the updated marks, and
// false if the player is unknown.
func (r *Registry) Mark(id model.PlayerID, number int) ([]int, bool) {
	m, ok := r.members[id]
	if !ok {
		return nil, false
	}
	m.player.Mark(number)
	return append([]int{}, m.player.MarkedNumbers...), true
}

// ClearMarks empties every player's marked numbers
func (r *Registry) ClearMarks() {
	for _, m := range r.members {
		m.player.ClearMarks()
	}
}

// Touch refreshes a player's heartbeat. Returns false if the player is unknown.
func (r *Registry) Touch(id model.PlayerID, now time.Time) bool {
	m, ok := r.members[id]
	if !ok {
		return false
	}
	m.player.LastPing = now
	return true
}

// TouchConn refreshes the heartbeat of whichever player conn is bound to
func (r *Registry) TouchConn(conn notify.Connection, now time.Time) bool {
	id, ok := r.PlayerFor(conn)
	if !ok {
		return false
	}
	return r.Touch(id, now)
}

// Disconnect drops the handle for conn. The player record is kept until a
// sweep prunes it. Returns the affected player, if any.
func (r *Registry) Disconnect(conn notify.Connection) (model.Player, bool) {
	if conn == nil {
		return model.Player{}, false
	}
	id, ok := r.conns[conn.ID()]
	if !ok {
		return model.Player{}, false
	}
	delete(r.conns, conn.ID())

	m, ok := r.members[id]
	if !ok {
		return model.Player{}, false
	}
	m.conn = nil
	m.player.Connected = false

	r.logger.Debug("player disconnected", slog.String("player_id", string(id)))
	return m.player.Clone(), true
}

// Sweep removes every player whose last heartbeat is older than timeout.
// Returns the removed players with their handles, sorted by id.
func (r *Registry) Sweep(now time.Time, timeout time.Duration) []Pruned {
	var pruned []Pruned
	for id, m := range r.members {
		if now.Sub(m.player.LastPing) <= timeout {
			continue
		}
		m.player.Connected = false
		pruned = append(pruned, Pruned{Player: m.player.Clone(), Conn: m.conn})
		if m.conn != nil {
			delete(r.conns, m.conn.ID())
		}
		delete(r.members, id)
	}
	sort.Slice(pruned, func(i, j int) bool {
		return pruned[i].Player.ID < pruned[j].Player.ID
	})
	if len(pruned) > 0 {
		r.logger.Info("pruned stale players", slog.Int("count", len(pruned)))
	}
	return pruned
}

// Pruned is a player removed by Sweep along with its last handle
type Pruned struct {
	Player model.Player
	Conn   notify.Connection
}

// Conn returns the live handle for a player, or nil
func (r *Registry) Conn(id model.PlayerID) notify.Connection {
	m, ok := r.members[id]
	if !ok {
		return nil
	}
	return m.conn
}

// ConnectedConns returns the handles of every connected player
func (r *Registry) ConnectedConns() []notify.Connection {
	conns := make([]notify.Connection, 0, len(r.members))
	for _, m := range r.members {
		if m.player.Connected && m.conn != nil {
			conns = append(conns, m.conn)
		}
	}
	return conns
}

// Players returns copies of every player sorted by id
func (r *Registry) Players() []model.Player {
	players := make([]model.Player, 0, len(r.members))
	for _, m := range r.members {
		players = append(players, m.player.Clone())
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID < players[j].ID
	})
	return players
}

// Count returns the number of tracked players
func (r *Registry) Count() int {
	return len(r.members)
}

// SetAdmin installs conn as the admin connection and returns the previous
// one, if it was a different connection
func (r *Registry) SetAdmin(conn notify.Connection) notify.Connection {
	prev := r.admin
	r.admin = conn
	if prev != nil && conn != nil && prev.ID() == conn.ID() {
		return nil
	}
	return prev
}

// Admin returns the authenticated admin connection, or nil
func (r *Registry) Admin() notify.Connection {
	return r.admin
}

// IsAdmin returns true if conn holds admin authority
func (r *Registry) IsAdmin(conn notify.Connection) bool {
	return r.admin != nil && conn != nil && r.admin.ID() == conn.ID()
}

// ClearAdmin drops admin authority if conn holds it. Returns true if it did.
func (r *Registry) ClearAdmin(conn notify.Connection) bool {
	if !r.IsAdmin(conn) {
		return false
	}
	r.admin = nil
	return true
}

// LiveConns returns every live handle, admin included, for keepalive pings
func (r *Registry) LiveConns() []notify.Connection {
	conns := r.ConnectedConns()
	if r.admin != nil {
		if _, bound := r.conns[r.admin.ID()]; !bound {
			conns = append(conns, r.admin)
		}
	}
	return conns
}
