package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/YDaewon/zompia/internal/auth"
	"github.com/YDaewon/zompia/internal/models"
)

// CreateMember hashes the password and inserts the member row, generating an
// ID when one is not supplied.
func CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate member id: %w", err)
		}
		member.ID = id
	}

	hash, err := auth.CreateHash(member.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	member.Password = hash

	q := `INSERT INTO members (id, email, password, nickname, is_guest)
	      VALUES ($1, $2, $3, $4, $5)`

	err = pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			member.ID, member.Email, member.Password, member.Nickname, member.IsGuest,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	var m models.Member
	q := `
	SELECT id, email, password, nickname, is_guest
	FROM members
	WHERE email=$1
	`
	err := DB.QueryRow(ctx, q, email).Scan(
		&m.ID, &m.Email, &m.Password, &m.Nickname, &m.IsGuest,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func GetMemberByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var m models.Member
	q := `
	SELECT id, email, password, nickname, is_guest
	FROM members
	WHERE id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(
		&m.ID, &m.Email, &m.Password, &m.Nickname, &m.IsGuest,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// AuthenticateMember verifies the credentials and returns a fresh session
// token for the member.
func AuthenticateMember(ctx context.Context, email, password string) (string, error) {
	member, err := GetMemberByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("member not found or db error: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, member.Password)
	if err != nil || !match {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := auth.CreateJWT(member.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, nil
}
