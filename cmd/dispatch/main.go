// cmd/dispatch/main.go is the match dispatcher: it pops match-start records
// from the Redis queue the lobby pushes to and persists them to PostgreSQL,
// where the game engine picks them up.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/YDaewon/zompia/internal/cache"
	"github.com/YDaewon/zompia/internal/database"
)

// DispatchService encapsulates the Redis + DB logic for draining the match
// queue.
type DispatchService struct {
	redisClient *redis.Client
	queueName   string

	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewDispatchService constructs a DispatchService from environment variables
// or defaults.
func NewDispatchService() *DispatchService {
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   getEnvInt("REDIS_DB", 0),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &DispatchService{
		redisClient: rdb,
		queueName:   getEnv("MATCH_QUEUE_NAME", cache.DefaultMatchQueueName),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and drains the queue until stopped.
func (ds *DispatchService) Run() {
	database.ConnectDB()

	go ds.readQueueLoop()

	log.Println("zompia-dispatch service started.")
	<-ds.ctx.Done()
	log.Println("zompia-dispatch shutting down.")
}

// readQueueLoop continuously uses BLPop to retrieve match-start records.
func (ds *DispatchService) readQueueLoop() {
	for {
		select {
		case <-ds.ctx.Done():
			return
		default:
		}

		// BLPop with a short timeout so context cancellation is handled.
		res, err := ds.redisClient.BLPop(ds.ctx, 3*time.Second, ds.queueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ds.ctx.Err() == nil {
				log.Printf("[ERROR] BLPop: %v", err)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		var record cache.MatchStartRecord
		if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
			log.Printf("invalid match start record: %v", err)
			continue
		}
		if err := ds.persistMatch(record); err != nil {
			log.Printf("[ERROR] persistMatch for room %s: %v", record.RoomID, err)
		}
	}
}

// persistMatch upserts the match row for the room. The room ID doubles as
// the match ID, as each room runs at most one match.
func (ds *DispatchService) persistMatch(record cache.MatchStartRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO matches (id, config, status, start_time)
			VALUES ($1, $2, 'in_progress', to_timestamp($3))
			ON CONFLICT (id) DO NOTHING
		`
		cfg, err := json.Marshal(record.Config)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, q, record.RoomID, cfg, record.Timestamp)
		return err
	})
}

// Stop gracefully stops the dispatcher.
func (ds *DispatchService) Stop() {
	ds.cancelFn()
}

func main() {
	ds := NewDispatchService()
	go ds.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	ds.Stop()
	log.Println("Dispatch shutdown complete.")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
