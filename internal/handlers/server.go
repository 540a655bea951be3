// internal/handlers/server.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/YDaewon/zompia/internal/room"
)

// SnapshotSink mirrors waiting-room snapshots to an external cache. The
// mirror is advisory; failures are logged and never block room operations.
type SnapshotSink interface {
	SaveSnapshot(ctx context.Context, info room.Info) error
	DeleteSnapshot(ctx context.Context, roomID uuid.UUID) error
}

// RoomServer binds the room store and the match-start collaborator to the
// HTTP/WebSocket surface.
type RoomServer struct {
	Rooms   *room.Store
	Starter room.MatchStarter

	// Snapshots, when set, receives a copy of every roster change.
	Snapshots SnapshotSink

	mu   sync.Mutex
	hubs map[uuid.UUID]*roomHub
}

func NewRoomServer(starter room.MatchStarter) *RoomServer {
	return &RoomServer{
		Rooms:   room.NewStore(),
		Starter: starter,
		hubs:    make(map[uuid.UUID]*roomHub),
	}
}

// hub returns the connection hub for a session, creating it and wiring the
// session's broadcast into it on first use.
func (rs *RoomServer) hub(sess *room.Session) *roomHub {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	h, ok := rs.hubs[sess.ID]
	if !ok {
		h = newRoomHub()
		rs.hubs[sess.ID] = h
		sess.BroadcastFn = h.broadcast
	}
	return h
}

func (rs *RoomServer) dropHub(roomID uuid.UUID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.hubs, roomID)
}

// closeRoom tears down everything attached to a room once it empties:
// the store entry, the hub, and the mirrored snapshot.
func (rs *RoomServer) closeRoom(roomID uuid.UUID) {
	rs.Rooms.Delete(roomID)
	rs.dropHub(roomID)
	if rs.Snapshots != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rs.Snapshots.DeleteSnapshot(ctx, roomID); err != nil {
				log.Warnf("room %s: failed to drop mirrored snapshot: %v", roomID, err)
			}
		}()
	}
}

// mirrorSnapshot pushes the current room snapshot to the sink, best-effort.
func (rs *RoomServer) mirrorSnapshot(sess *room.Session) {
	if rs.Snapshots == nil {
		return
	}
	info := sess.Snapshot()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rs.Snapshots.SaveSnapshot(ctx, info); err != nil {
			log.Warnf("room %s: failed to mirror snapshot: %v", info.RoomID, err)
		}
	}()
}
