// internal/handlers/member.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/YDaewon/zompia/internal/auth"
	"github.com/YDaewon/zompia/internal/database"
	"github.com/YDaewon/zompia/internal/models"
)

// requireMember authenticates the request's auth_token cookie and returns
// the member ID.
func requireMember(r *http.Request) (uuid.UUID, error) {
	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		return uuid.Nil, fmt.Errorf("missing auth_token")
	}
	token := extractCookieToken(cookie, "auth_token")
	memberIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	memberID, err := uuid.Parse(memberIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid member id in token: %w", err)
	}
	return memberID, nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// RegisterHandler creates a member account.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" || req.Nickname == "" {
		http.Error(w, "email, password and nickname are required", http.StatusBadRequest)
		return
	}

	member := models.Member{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	}

	if err := database.CreateMember(r.Context(), &member); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		http.Error(w, "error creating member", http.StatusInternalServerError)
		return
	}

	member.Password = ""
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(member)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler verifies credentials and returns a session token, which is
// also set as the auth_token cookie.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	token, err := database.AuthenticateMember(context.Background(), req.Email, req.Password)
	if err != nil {
		log.Printf("failed to authenticate member: %v", err)
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
	})

	resp := loginResponse{Token: token}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to write response", http.StatusInternalServerError)
		return
	}
}

// LogoutHandler expires the auth_token cookie. Tokens themselves stay valid
// until expiry; the server keeps no session table.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusOK)
}
