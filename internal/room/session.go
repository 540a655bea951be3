// internal/room/session.go
package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Player is one member of a waiting room roster.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Ready    bool      `json:"ready"`
}

// EventType tags a broadcast event emitted by a session.
type EventType string

const (
	EventMemberJoin   EventType = "member_join"
	EventMemberLeave  EventType = "member_leave"
	EventMemberKicked EventType = "member_kicked"
	EventReadyUpdate  EventType = "ready_update"
	EventHostChange   EventType = "host_change"
	EventChat         EventType = "chat"
	EventMatchStart   EventType = "match_start"
)

// Event is broadcast to every connected member via the transport
// collaborator. Players carries the roster snapshot after the transition so
// clients can re-render without a follow-up query.
type Event struct {
	Type    EventType              `json:"type"`
	Player  *Player                `json:"player,omitempty"`
	Players []Player               `json:"players,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// MatchStarter hands a fully-ready room off to the match engine. The call is
// synchronous from the session's point of view; the session only commits the
// started state once the starter confirms.
type MatchStarter interface {
	StartMatch(ctx context.Context, roomID uuid.UUID, cfg RoomConfig) error
}

// startTimeout bounds the match-start handoff so a lost confirmation
// surfaces as a failure instead of leaving the room indeterminate.
const startTimeout = 10 * time.Second

// Session is the authoritative waiting-room state for one room: the ordered
// roster, per-player ready flags and host identity. All transitions are
// serialized under one mutex; events from the transport are applied in
// delivery order.
type Session struct {
	ID     uuid.UUID
	HostID uuid.UUID
	Config RoomConfig

	// BroadcastFn is used to push events to all connected members. If nil,
	// no broadcast is done.
	BroadcastFn func(ev Event)

	// OnEmpty is called after the last member leaves, typically wired to
	// Store.Delete by the code that created the session.
	OnEmpty func(roomID uuid.UUID)

	mu       sync.Mutex
	players  []*Player // join order, preserved across kicks and leaves
	started  bool
	starting bool
}

// NewSession creates the waiting room for a freshly submitted config. The
// host is recorded but joins the roster through the transport like everyone
// else.
func NewSession(hostID uuid.UUID, cfg RoomConfig) *Session {
	id, _ := uuid.NewRandom()
	return &Session{
		ID:     id,
		HostID: hostID,
		Config: cfg,
	}
}

func (s *Session) indexOfLocked(id uuid.UUID) int {
	for i, p := range s.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) rosterLocked() []Player {
	out := make([]Player, len(s.players))
	for i, p := range s.players {
		out[i] = *p
	}
	return out
}

func (s *Session) broadcastLocked(ev Event) {
	if s.BroadcastFn != nil {
		ev.Players = s.rosterLocked()
		s.BroadcastFn(ev)
	}
}

// Join appends a member to the end of the roster with ready=false. Joining
// twice is an idempotent no-op. A non-empty room password must match; the
// roster is capped at the required player count.
func (s *Session) Join(p Player, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrInProgress
	}
	if s.Config.Password != "" && password != s.Config.Password {
		return ErrWrongPassword
	}
	if s.indexOfLocked(p.ID) >= 0 {
		return nil // already in the roster
	}
	if len(s.players) >= s.Config.RequiredPlayers {
		return ErrRoomFull
	}

	joined := Player{ID: p.ID, Nickname: p.Nickname}
	s.players = append(s.players, &joined)
	s.broadcastLocked(Event{Type: EventMemberJoin, Player: &joined})
	return nil
}

// Leave removes a member, keeping the remaining join order intact. If the
// host leaves, authority passes to the earliest-joined remaining member.
// The OnEmpty callback fires after the last member is gone.
func (s *Session) Leave(id uuid.UUID) {
	s.mu.Lock()

	i := s.indexOfLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	left := *s.players[i]
	s.players = append(s.players[:i], s.players[i+1:]...)
	s.broadcastLocked(Event{Type: EventMemberLeave, Player: &left})

	if id == s.HostID && len(s.players) > 0 {
		s.HostID = s.players[0].ID
		s.broadcastLocked(Event{Type: EventHostChange, Player: s.players[0]})
	}

	empty := len(s.players) == 0
	onEmpty := s.OnEmpty
	s.mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty(s.ID)
	}
}

// ToggleReady flips the ready flag for the given member. It returns false
// for an unknown id: that is a stale-snapshot race, not a fault, so the
// caller gets a result instead of an error.
func (s *Session) ToggleReady(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return false
	}
	s.players[i].Ready = !s.players[i].Ready
	s.broadcastLocked(Event{Type: EventReadyUpdate, Player: s.players[i]})
	return true
}

// Kick removes the target from the roster. Only the host may kick, and the
// host cannot kick themselves. The UI confirms with the host before calling
// this; the kicked member is not asked. An authorization failure or a bad
// target leaves the roster untouched.
func (s *Session) Kick(requesterID, targetID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requesterID != s.HostID {
		return ErrNotHost
	}
	if targetID == s.HostID {
		return ErrKickTarget
	}
	i := s.indexOfLocked(targetID)
	if i < 0 {
		return ErrKickTarget
	}
	kicked := *s.players[i]
	s.players = append(s.players[:i], s.players[i+1:]...)
	s.broadcastLocked(Event{Type: EventMemberKicked, Player: &kicked})
	return nil
}

func (s *Session) canStartLocked(requesterID uuid.UUID) bool {
	if s.started || s.starting {
		return false
	}
	if requesterID != s.HostID {
		return false
	}
	if len(s.players) != s.Config.RequiredPlayers {
		return false
	}
	for _, p := range s.players {
		// The host signals intent by starting; their own ready flag is
		// deliberately not part of the gate.
		if p.ID != s.HostID && !p.Ready {
			return false
		}
	}
	return true
}

// CanStart reports whether the requester may start the match right now:
// host authority, full roster, every non-host member ready.
func (s *Session) CanStart(requesterID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canStartLocked(requesterID)
}

// Start hands the room to the match engine. Preconditions are re-checked
// here regardless of what the start button showed. No local state changes
// until the starter confirms; a timeout or rejection leaves the room in the
// waiting state for an explicit retry.
func (s *Session) Start(ctx context.Context, requesterID uuid.UUID, starter MatchStarter) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrInProgress
	}
	if requesterID != s.HostID {
		s.mu.Unlock()
		return ErrNotHost
	}
	if !s.canStartLocked(requesterID) {
		s.mu.Unlock()
		return ErrNotStartable
	}
	s.starting = true
	roomID, cfg := s.ID, s.Config
	s.mu.Unlock()

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	err := starter.StartMatch(startCtx, roomID, cfg)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if err != nil {
		return fmt.Errorf("match start failed: %w", err)
	}
	s.started = true
	s.broadcastLocked(Event{
		Type:    EventMatchStart,
		Payload: map[string]interface{}{"roomId": roomID.String()},
	})
	return nil
}

// Chat relays a chat line from a roster member to everyone in the room.
func (s *Session) Chat(senderID uuid.UUID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(senderID)
	if i < 0 || msg == "" {
		return
	}
	s.broadcastLocked(Event{
		Type:   EventChat,
		Player: s.players[i],
		Payload: map[string]interface{}{
			"msg": msg,
			"ts":  time.Now().Unix(),
		},
	})
}

// Players returns the roster in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

// IsHost reports whether the given member currently holds host authority.
func (s *Session) IsHost(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id == s.HostID
}

// InProgress reports whether the match has been started.
func (s *Session) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Info is the advisory room snapshot mirrored to external caches and shown
// on the lobby listing. The in-memory session stays authoritative.
type Info struct {
	RoomID          uuid.UUID `json:"roomId"`
	Title           string    `json:"title"`
	HostID          uuid.UUID `json:"hostId"`
	RequiredPlayers int       `json:"requiredPlayers"`
	Players         []Player  `json:"players"`
	Private         bool      `json:"private"`
	InProgress      bool      `json:"inProgress"`
}

// Snapshot captures the current public state of the room.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		RoomID:          s.ID,
		Title:           s.Config.Title,
		HostID:          s.HostID,
		RequiredPlayers: s.Config.RequiredPlayers,
		Players:         s.rosterLocked(),
		Private:         s.Config.Password != "",
		InProgress:      s.started,
	}
}
