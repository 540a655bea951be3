// internal/handlers/room_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/YDaewon/zompia/internal/auth"
	"github.com/YDaewon/zompia/internal/room"
)

// TestRoomCreate checks that /rooms/create builds a waiting room in memory.
func TestRoomCreate(t *testing.T) {
	auth.Init() // ephemeral keys, no DB needed
	rs := NewRoomServer(nil)

	host := uuid.New()
	token, _ := auth.CreateJWT(host.String())

	body := `{"title":"last shelter","requiredPlayers":4,"gameOption":{"zombie":1,"mutant":1,"nightTimeSec":60,"dayDisTimeSec":90}}`
	req := httptest.NewRequest("POST", "/rooms/create", bytes.NewBuffer([]byte(body)))
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()

	h := CreateRoomHandler(rs)
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var info room.Info
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode room info: %v", err)
	}
	if info.RoomID == uuid.Nil {
		t.Fatalf("room has no ID")
	}
	if info.HostID != host {
		t.Fatalf("room host mismatch, expected %v got %v", host, info.HostID)
	}
	if info.RequiredPlayers != 4 {
		t.Fatalf("expected 4 required players, got %d", info.RequiredPlayers)
	}
	if _, ok := rs.Rooms.Get(info.RoomID); !ok {
		t.Fatalf("room %v not found in store", info.RoomID)
	}
}

// TestRoomCreateNormalizes checks that out-of-band numeric input is run
// through the same clamping as the creation form.
func TestRoomCreateNormalizes(t *testing.T) {
	auth.Init()
	rs := NewRoomServer(nil)
	token, _ := auth.CreateJWT(uuid.New().String())

	body := `{"title":"clamped","requiredPlayers":4,"gameOption":{"zombie":9,"mutant":9,"nightTimeSec":5,"dayDisTimeSec":999}}`
	req := httptest.NewRequest("POST", "/rooms/create", bytes.NewBuffer([]byte(body)))
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()
	CreateRoomHandler(rs).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var info room.Info
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to decode room info: %v", err)
	}
	sess, ok := rs.Rooms.Get(info.RoomID)
	if !ok {
		t.Fatalf("room %v not found in store", info.RoomID)
	}
	opt := sess.Config.GameOption
	if opt.Zombie != 1 || opt.Mutant != 1 {
		t.Fatalf("expected roles clamped to 1/1 for 4 players, got %d/%d", opt.Zombie, opt.Mutant)
	}
	if opt.NightTimeSec != 30 {
		t.Fatalf("expected below-min night timer reset to 30, got %d", opt.NightTimeSec)
	}
	if opt.DayDisTimeSec != 300 {
		t.Fatalf("expected day timer clamped to 300, got %d", opt.DayDisTimeSec)
	}
}

// TestRoomCreateInvalid checks that an untitled room is rejected outright.
func TestRoomCreateInvalid(t *testing.T) {
	auth.Init()
	rs := NewRoomServer(nil)
	token, _ := auth.CreateJWT(uuid.New().String())

	body := `{"title":"   ","requiredPlayers":4}`
	req := httptest.NewRequest("POST", "/rooms/create", bytes.NewBuffer([]byte(body)))
	req.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()
	CreateRoomHandler(rs).ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

// TestRoomList checks the lobby listing endpoint.
func TestRoomList(t *testing.T) {
	auth.Init()
	rs := NewRoomServer(nil)
	token, _ := auth.CreateJWT(uuid.New().String())

	body := `{"title":"listed","requiredPlayers":3}`
	req := httptest.NewRequest("POST", "/rooms/create", bytes.NewBuffer([]byte(body)))
	req.Header.Set("Cookie", "auth_token="+token)
	CreateRoomHandler(rs).ServeHTTP(httptest.NewRecorder(), req)

	listReq := httptest.NewRequest("GET", "/rooms/list", nil)
	listReq.Header.Set("Cookie", "auth_token="+token)
	w := httptest.NewRecorder()
	ListRoomsHandler(rs).ServeHTTP(w, listReq)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var infos []room.Info
	if err := json.Unmarshal(w.Body.Bytes(), &infos); err != nil {
		t.Fatalf("failed to decode room list: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected 1 room, got %d", len(infos))
	}
	if infos[0].Title != "listed" {
		t.Fatalf("unexpected title %q", infos[0].Title)
	}
}

// TestRoomCreateRequiresAuth checks that an anonymous request is rejected.
func TestRoomCreateRequiresAuth(t *testing.T) {
	auth.Init()
	rs := NewRoomServer(nil)

	req := httptest.NewRequest("POST", "/rooms/create", bytes.NewBufferString(`{"title":"x"}`))
	w := httptest.NewRecorder()
	CreateRoomHandler(rs).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
