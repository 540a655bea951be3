// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/YDaewon/zompia/internal/database"
	"github.com/YDaewon/zompia/internal/middleware"
	"github.com/YDaewon/zompia/internal/room"
)

// Event types that exist only on the wire, not as roster transitions.
const (
	eventError     room.EventType = "error"
	eventRoomState room.EventType = "room_state"
)

// memberConn is a single member's live presence in a waiting room.
type memberConn struct {
	MemberID uuid.UUID
	Nickname string
	Cancel   func()
	OutChan  chan room.Event
}

// Write pushes an event onto the member's OutChan non-blockingly. Logs if dropped.
func (c *memberConn) Write(ev room.Event) {
	select {
	case c.OutChan <- ev:
	default:
		logrus.Warnf("memberConn: OutChan for member %s closed or full, dropped event %q", c.MemberID, ev.Type)
	}
}

// WriteError is a convenience to send an error event to this member only.
func (c *memberConn) WriteError(msg string) {
	c.Write(room.Event{
		Type:    eventError,
		Payload: map[string]interface{}{"message": msg},
	})
}

// roomHub fans session events out to every connected member of one room.
type roomHub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*memberConn
}

func newRoomHub() *roomHub {
	return &roomHub{conns: make(map[uuid.UUID]*memberConn)}
}

func (h *roomHub) add(c *memberConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[c.MemberID]; ok && old != c {
		// Replace a stale connection for the same member.
		close(old.OutChan)
		if old.Cancel != nil {
			old.Cancel()
		}
	}
	h.conns[c.MemberID] = c
}

func (h *roomHub) remove(c *memberConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[c.MemberID]; ok && cur == c {
		delete(h.conns, c.MemberID)
	}
}

// disconnect cancels a member's connection, e.g. after a kick.
func (h *roomHub) disconnect(memberID uuid.UUID) {
	h.mu.Lock()
	c, ok := h.conns[memberID]
	h.mu.Unlock()
	if ok && c.Cancel != nil {
		c.Cancel()
	}
}

func (h *roomHub) broadcast(ev room.Event) {
	h.mu.Lock()
	conns := make([]*memberConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Write(ev)
	}
}

// RoomWSHandler upgrades a member into a waiting room over WebSocket and
// relays roster actions until the connection closes.
func RoomWSHandler(logger *logrus.Logger, rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		roomIDStr := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/rooms/ws/"), "/")
		roomID, err := uuid.Parse(roomIDStr)
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"zompia"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "zompia" {
			c.Close(BadSubprotocolError, "client must speak the zompia subprotocol")
			return
		}

		memberID, err := requireMember(r)
		if err != nil {
			logger.Warnf("member authentication failed for room %s: %v", roomID, err)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}

		sess, exists := rs.Rooms.Get(roomID)
		if !exists {
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}

		nickname := fetchNickname(memberID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := &memberConn{
			MemberID: memberID,
			Nickname: nickname,
			Cancel:   cancel,
			OutChan:  make(chan room.Event, 10),
		}

		hub := rs.hub(sess)
		hub.add(conn)

		password := r.URL.Query().Get("password")
		if err := sess.Join(room.Player{ID: memberID, Nickname: nickname}, password); err != nil {
			hub.remove(conn)
			switch {
			case errors.Is(err, room.ErrRoomFull):
				c.Close(RoomFullError, "room is full")
			case errors.Is(err, room.ErrWrongPassword):
				c.Close(WrongPasswordError, "wrong password")
			case errors.Is(err, room.ErrInProgress):
				c.Close(RoomInProgressError, "match already in progress")
			default:
				c.Close(websocket.StatusPolicyViolation, fmt.Sprintf("join failed: %v", err))
			}
			return
		}

		logger.Infof("Member %v (%s) joined room %v", memberID, remoteAddr, roomID)

		// Private full-state sync before anything else.
		conn.Write(room.Event{
			Type:    eventRoomState,
			Players: sess.Players(),
			Payload: map[string]interface{}{
				"roomId":          sess.ID.String(),
				"hostId":          sess.HostID.String(),
				"yourId":          memberID.String(),
				"yourIsHost":      sess.IsHost(memberID),
				"requiredPlayers": sess.Config.RequiredPlayers,
				"title":           sess.Config.Title,
				"gameOption":      sess.Config.GameOption,
			},
		})
		rs.mirrorSnapshot(sess)

		go writePump(ctx, c, conn, logger)
		readPump(ctx, c, rs, sess, hub, conn, logger)

		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
		hub.remove(conn)
		sess.Leave(memberID)
		if _, stillThere := rs.Rooms.Get(roomID); stillThere {
			rs.mirrorSnapshot(sess)
		}
	}
}

// fetchNickname resolves the member's display name, with a fallback when the
// database is unreachable.
func fetchNickname(memberID uuid.UUID) string {
	if database.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if m, err := database.GetMemberByID(ctx, memberID); err == nil {
			return m.Nickname
		}
	}
	return "Survivor_" + memberID.String()[:4]
}

// readPump handles incoming messages until the connection closes or the
// member leaves.
func readPump(ctx context.Context, c *websocket.Conn, rs *RoomServer, sess *room.Session, hub *roomHub, conn *memberConn, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Room %s: WebSocket closed normally for member %v", sess.ID, conn.MemberID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("Room %s: read error for member %v: %v", sess.ID, conn.MemberID, err)
			}
			return
		}

		if typ != websocket.MessageText {
			continue
		}

		var packet map[string]interface{}
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("Room %s: invalid json from member %v: %v", sess.ID, conn.MemberID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		if leave := handleRoomMessage(ctx, packet, rs, sess, hub, conn, logger); leave {
			return
		}
	}
}

// handleRoomMessage interprets the "type" field for waiting-room actions.
// Returns true when the member asked to leave.
func handleRoomMessage(ctx context.Context, packet map[string]interface{}, rs *RoomServer, sess *room.Session, hub *roomHub, conn *memberConn, logger *logrus.Logger) bool {
	action, _ := packet["type"].(string)

	switch action {
	case "ready":
		if !sess.ToggleReady(conn.MemberID) {
			conn.WriteError("You are not in this room")
			return false
		}
		rs.mirrorSnapshot(sess)

	case "chat":
		msg, _ := packet["msg"].(string)
		if msg != "" {
			sess.Chat(conn.MemberID, msg)
		}

	case "kick":
		targetStr, _ := packet["targetId"].(string)
		targetID, err := uuid.Parse(targetStr)
		if err != nil {
			conn.WriteError("Invalid targetId for kick")
			return false
		}
		if err := sess.Kick(conn.MemberID, targetID); err != nil {
			switch {
			case errors.Is(err, room.ErrNotHost):
				conn.WriteError("Only the host can kick members")
			case errors.Is(err, room.ErrKickTarget):
				conn.WriteError("That member cannot be kicked")
			default:
				conn.WriteError("Kick failed")
			}
			return false
		}
		hub.disconnect(targetID)
		rs.mirrorSnapshot(sess)

	case "start_game":
		if err := sess.Start(ctx, conn.MemberID, rs.Starter); err != nil {
			switch {
			case errors.Is(err, room.ErrNotHost):
				conn.WriteError("Only the host can start the match")
			case errors.Is(err, room.ErrNotStartable):
				conn.WriteError("Room is not full or members are not ready")
			case errors.Is(err, room.ErrInProgress):
				conn.WriteError("Match already in progress")
			default:
				logger.Warnf("Room %s: match start failed: %v", sess.ID, err)
				conn.WriteError("Match start failed, try again")
			}
			return false
		}
		logger.Infof("Room %s: match started by host %v", sess.ID, conn.MemberID)
		if database.DB != nil {
			go func(roomID uuid.UUID) {
				dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := database.MarkRoomStarted(dbCtx, roomID); err != nil {
					logger.Warnf("Room %s: failed to record start: %v", roomID, err)
				}
			}(sess.ID)
		}
		rs.mirrorSnapshot(sess)

	case "leave_room":
		return true

	default:
		logger.Warnf("Room %s: unknown action %q from member %v", sess.ID, action, conn.MemberID)
		conn.WriteError(fmt.Sprintf("Unknown action type: %s", action))
	}
	return false
}

// writePump serializes outgoing events and keeps the connection alive with
// periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *memberConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal outgoing event for member %v: %v", conn.MemberID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for member %v: %v", conn.MemberID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to ping member %v, assuming disconnect: %v", conn.MemberID, err)
				return
			}
		}
	}
}
