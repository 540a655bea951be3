// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/YDaewon/zompia/internal/room"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultMatchQueueName is the Redis list the game engine consumes match
// start requests from.
var DefaultMatchQueueName = "zompia_matches"

// roomInfoTTL bounds how long a stale mirrored snapshot can outlive its
// room if the server dies without cleaning up.
const roomInfoTTL = 24 * time.Hour

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

func roomInfoKey(roomID uuid.UUID) string {
	return "room:" + roomID.String()
}

// RoomMirror mirrors waiting-room snapshots into Redis so the lobby listing
// can be served by other instances. The in-memory session stays
// authoritative; these keys are advisory.
type RoomMirror struct{}

// SaveSnapshot serializes the snapshot and stores it under room:<id>.
func (RoomMirror) SaveSnapshot(ctx context.Context, info room.Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal room snapshot: %w", err)
	}
	if err := Rdb.Set(ctx, roomInfoKey(info.RoomID), data, roomInfoTTL).Err(); err != nil {
		return fmt.Errorf("failed to SET room snapshot: %w", err)
	}
	return nil
}

// DeleteSnapshot drops the mirrored snapshot for a closed room.
func (RoomMirror) DeleteSnapshot(ctx context.Context, roomID uuid.UUID) error {
	if err := Rdb.Del(ctx, roomInfoKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to DEL room snapshot: %w", err)
	}
	return nil
}

// MatchStartRecord is the payload pushed to the match queue once a room's
// start preconditions pass.
type MatchStartRecord struct {
	RoomID    uuid.UUID       `json:"room_id"`
	Config    room.RoomConfig `json:"config"`
	Timestamp int64           `json:"timestamp"`
}

// MatchQueue implements room.MatchStarter by pushing start records onto a
// Redis list consumed by the match engine.
type MatchQueue struct {
	// QueueName overrides MATCH_QUEUE_NAME / DefaultMatchQueueName when set.
	QueueName string
}

func (q MatchQueue) StartMatch(ctx context.Context, roomID uuid.UUID, cfg room.RoomConfig) error {
	record := MatchStartRecord{
		RoomID:    roomID,
		Config:    cfg,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchStartRecord: %w", err)
	}

	queueName := q.QueueName
	if queueName == "" {
		queueName = getEnv("MATCH_QUEUE_NAME", DefaultMatchQueueName)
	}
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
