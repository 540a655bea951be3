// internal/handlers/room.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/YDaewon/zompia/internal/database"
	"github.com/YDaewon/zompia/internal/room"
)

// createRoomRequest mirrors the creation form fields. Missing numeric
// fields decode as zero and fall out of the draft normalization as the
// defaults.
type createRoomRequest struct {
	Title           string          `json:"title"`
	RequiredPlayers int             `json:"requiredPlayers"`
	Password        string          `json:"password"`
	GameOption      room.GameOption `json:"gameOption"`
}

// CreateRoomHandler runs the submitted form through draft normalization and
// creates the waiting room on success. Field-level problems were already
// clamped client-side and are clamped again here; only a draft that still
// fails validation is rejected.
func CreateRoomHandler(rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostID, err := requireMember(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad room request payload", http.StatusBadRequest)
			return
		}

		draft := room.NewDraft().
			WithTitle(req.Title).
			WithRequiredPlayers(req.RequiredPlayers).
			WithRole(room.RoleZombie, req.GameOption.Zombie).
			WithRole(room.RoleMutant, req.GameOption.Mutant).
			WithTimerCommit(room.TimerNight, strconv.Itoa(req.GameOption.NightTimeSec)).
			WithTimerCommit(room.TimerDayDiscussion, strconv.Itoa(req.GameOption.DayDisTimeSec)).
			WithPassword(req.Password)

		cfg, err := draft.Submit()
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		sess := room.NewSession(hostID, cfg)
		sess.OnEmpty = rs.closeRoom
		rs.Rooms.Add(sess)

		// Room history is best-effort; the live room does not depend on it.
		if database.DB != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := database.InsertRoom(ctx, sess.ID, hostID, cfg); err != nil {
					log.Warnf("room %s: failed to record creation: %v", sess.ID, err)
				}
			}()
		}

		rs.mirrorSnapshot(sess)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sess.Snapshot())
	}
}

// ListRoomsHandler returns the public snapshot of every active room for the
// lobby screen.
func ListRoomsHandler(rs *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := requireMember(r); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rs.Rooms.Snapshots())
	}
}
