package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/YDaewon/zompia/internal/room"
)

// InsertRoom records a created room for history. The live roster stays in
// memory; this row is the audit trail only.
func InsertRoom(ctx context.Context, roomID, hostID uuid.UUID, cfg room.RoomConfig) error {
	q := `
	INSERT INTO rooms (
		id, host_member_id, title, required_players, is_private,
		zombie_count, mutant_count, doctor_skill_usage,
		night_time_sec, day_dis_time_sec
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			roomID,
			hostID,
			cfg.Title,
			cfg.RequiredPlayers,
			cfg.Password != "",
			cfg.GameOption.Zombie,
			cfg.GameOption.Mutant,
			cfg.GameOption.DoctorSkillUsage,
			cfg.GameOption.NightTimeSec,
			cfg.GameOption.DayDisTimeSec,
		)
		return err
	})
}

// MarkRoomStarted stamps the room row once the match engine confirms start.
func MarkRoomStarted(ctx context.Context, roomID uuid.UUID) error {
	q := `UPDATE rooms SET started_at = now() WHERE id = $1`
	_, err := DB.Exec(ctx, q, roomID)
	return err
}
