// internal/room/session_test.go
package room

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder collects broadcast events instead of sending them over WS.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) last() *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return &r.events[len(r.events)-1]
}

// fakeStarter stands in for the match engine collaborator.
type fakeStarter struct {
	mu    sync.Mutex
	calls int
	err   error

	lastRoom uuid.UUID
	lastCfg  RoomConfig
}

func (f *fakeStarter) StartMatch(ctx context.Context, roomID uuid.UUID, cfg RoomConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastRoom = roomID
	f.lastCfg = cfg
	return f.err
}

func testConfig(t *testing.T, requiredPlayers int) RoomConfig {
	t.Helper()
	cfg, err := NewDraft().WithTitle("shelter").WithRequiredPlayers(requiredPlayers).Submit()
	require.NoError(t, err)
	return cfg
}

func testPlayer(nickname string) Player {
	return Player{ID: uuid.New(), Nickname: nickname}
}

func ids(players []Player) []uuid.UUID {
	out := make([]uuid.UUID, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func TestJoinOrderPreservedAfterKick(t *testing.T) {
	a, b, c := testPlayer("a"), testPlayer("b"), testPlayer("c")
	sess := NewSession(a.ID, testConfig(t, 4))

	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	require.NoError(t, sess.Join(c, ""))

	require.NoError(t, sess.Kick(a.ID, b.ID))
	assert.Equal(t, []uuid.UUID{a.ID, c.ID}, ids(sess.Players()))
}

func TestJoinIdempotent(t *testing.T) {
	a := testPlayer("a")
	sess := NewSession(a.ID, testConfig(t, 4))

	require.NoError(t, sess.Join(a, ""))
	require.True(t, sess.ToggleReady(a.ID))

	// A duplicate join neither errors nor resets the ready flag.
	require.NoError(t, sess.Join(a, ""))
	players := sess.Players()
	require.Len(t, players, 1)
	assert.True(t, players[0].Ready)
}

func TestJoinRoomFull(t *testing.T) {
	a, b, c := testPlayer("a"), testPlayer("b"), testPlayer("c")
	sess := NewSession(a.ID, testConfig(t, 2))

	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	assert.ErrorIs(t, sess.Join(c, ""), ErrRoomFull)
	assert.Len(t, sess.Players(), 2)
}

func TestJoinPassword(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	cfg, err := NewDraft().WithTitle("shelter").WithRequiredPlayers(2).WithPassword("hush").Submit()
	require.NoError(t, err)
	sess := NewSession(a.ID, cfg)

	assert.ErrorIs(t, sess.Join(a, "wrong"), ErrWrongPassword)
	require.NoError(t, sess.Join(a, "hush"))
	require.NoError(t, sess.Join(b, "hush"))
}

func TestToggleReadyUnknownMember(t *testing.T) {
	a := testPlayer("a")
	sess := NewSession(a.ID, testConfig(t, 4))
	require.NoError(t, sess.Join(a, ""))

	assert.False(t, sess.ToggleReady(uuid.New()), "unknown id is a no-op result, not a panic")
	assert.True(t, sess.ToggleReady(a.ID))
	assert.True(t, sess.Players()[0].Ready)
	assert.True(t, sess.ToggleReady(a.ID))
	assert.False(t, sess.Players()[0].Ready)
}

func TestKickAuthorization(t *testing.T) {
	a, b, c := testPlayer("a"), testPlayer("b"), testPlayer("c")
	sess := NewSession(a.ID, testConfig(t, 4))
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	require.NoError(t, sess.Join(c, ""))

	assert.ErrorIs(t, sess.Kick(b.ID, c.ID), ErrNotHost)
	assert.Len(t, sess.Players(), 3, "failed kick must not touch the roster")

	assert.ErrorIs(t, sess.Kick(a.ID, a.ID), ErrKickTarget, "host cannot kick self")
	assert.ErrorIs(t, sess.Kick(a.ID, uuid.New()), ErrKickTarget)
}

func TestCanStartIgnoresHostReady(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	sess := NewSession(a.ID, testConfig(t, 2))
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))

	assert.False(t, sess.CanStart(a.ID), "non-host member not ready")

	sess.ToggleReady(b.ID)
	assert.True(t, sess.CanStart(a.ID), "host's own ready flag is not required")
	assert.False(t, sess.CanStart(b.ID), "non-host cannot start")

	sess.ToggleReady(a.ID)
	assert.True(t, sess.CanStart(a.ID), "host readiness changes nothing")
}

func TestCanStartRequiresFullRoster(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	sess := NewSession(a.ID, testConfig(t, 3))
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	sess.ToggleReady(b.ID)

	assert.False(t, sess.CanStart(a.ID))
}

func TestStartHandsOffToCollaborator(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	sess := NewSession(a.ID, testConfig(t, 2))
	rec := &eventRecorder{}
	sess.BroadcastFn = rec.record
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	sess.ToggleReady(b.ID)

	starter := &fakeStarter{}
	require.NoError(t, sess.Start(context.Background(), a.ID, starter))

	assert.Equal(t, 1, starter.calls)
	assert.Equal(t, sess.ID, starter.lastRoom)
	assert.Equal(t, sess.Config, starter.lastCfg)
	assert.True(t, sess.InProgress())
	require.NotNil(t, rec.last())
	assert.Equal(t, EventMatchStart, rec.last().Type)

	// Starting twice is rejected without another collaborator call.
	assert.ErrorIs(t, sess.Start(context.Background(), a.ID, starter), ErrInProgress)
	assert.Equal(t, 1, starter.calls)
}

func TestStartPreconditionsCheckedBeforeCall(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	sess := NewSession(a.ID, testConfig(t, 2))
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))

	starter := &fakeStarter{}
	assert.ErrorIs(t, sess.Start(context.Background(), b.ID, starter), ErrNotHost)
	assert.ErrorIs(t, sess.Start(context.Background(), a.ID, starter), ErrNotStartable)
	assert.Equal(t, 0, starter.calls, "no network call before preconditions pass")
}

func TestStartFailureLeavesRoomWaiting(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	sess := NewSession(a.ID, testConfig(t, 2))
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	sess.ToggleReady(b.ID)

	starter := &fakeStarter{err: errors.New("engine unavailable")}
	err := sess.Start(context.Background(), a.ID, starter)
	require.Error(t, err)

	assert.False(t, sess.InProgress(), "no half-applied start state")
	assert.True(t, sess.CanStart(a.ID), "explicit retry stays possible")
}

func TestHostLeavePromotesEarliestMember(t *testing.T) {
	a, b, c := testPlayer("a"), testPlayer("b"), testPlayer("c")
	sess := NewSession(a.ID, testConfig(t, 4))
	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))
	require.NoError(t, sess.Join(c, ""))

	sess.Leave(a.ID)
	assert.True(t, sess.IsHost(b.ID))
	assert.Equal(t, []uuid.UUID{b.ID, c.ID}, ids(sess.Players()))
}

func TestOnEmptyFiresAfterLastLeave(t *testing.T) {
	a := testPlayer("a")
	sess := NewSession(a.ID, testConfig(t, 4))

	var emptied []uuid.UUID
	sess.OnEmpty = func(roomID uuid.UUID) { emptied = append(emptied, roomID) }

	require.NoError(t, sess.Join(a, ""))
	sess.Leave(a.ID)
	require.Len(t, emptied, 1)
	assert.Equal(t, sess.ID, emptied[0])
}

func TestBroadcastCarriesRosterSnapshot(t *testing.T) {
	a, b := testPlayer("a"), testPlayer("b")
	sess := NewSession(a.ID, testConfig(t, 4))
	rec := &eventRecorder{}
	sess.BroadcastFn = rec.record

	require.NoError(t, sess.Join(a, ""))
	require.NoError(t, sess.Join(b, ""))

	last := rec.last()
	require.NotNil(t, last)
	assert.Equal(t, EventMemberJoin, last.Type)
	assert.Equal(t, b.ID, last.Player.ID)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(last.Players))
}
