package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"lootledger/internal/logger"
	"lootledger/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func GetUserByID(db *sql.DB, userID int) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE id = ?
	`

	err := db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// CreateUser registers a new account. The first account ever created
// becomes the admin; everyone after that is a member.
func CreateUser(db *sql.DB, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var userCount int
	err = db.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	role := models.RoleMember
	if userCount == 0 {
		role = models.RoleAdmin
	}

	query := `
		INSERT INTO users (username, password_hash, role, email)
		VALUES (?, ?, ?, NULLIF(?, ''))
	`

	result, err := db.Exec(query, username, string(hashedPassword), role, email)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username is already taken: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	user := &models.User{
		ID:           int(id),
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now(),
	}

	return user, nil
}

func AuthenticateUser(db *sql.DB, username, password string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = ?
	`

	err := db.QueryRow(query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, fmt.Errorf("invalid password: %w", ErrForbidden)
	}

	return user, nil
}

// GetUserEmail returns the account's notification address, empty when
// the user registered without one.
func GetUserEmail(db *sql.DB, userID int) (string, error) {
	var email string
	err := db.QueryRow("SELECT COALESCE(email, '') FROM users WHERE id = ?", userID).Scan(&email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to query user email: %w", err)
	}
	return email, nil
}

func CreateSession(db *sql.DB, userID int, sessionDuration time.Duration) (*models.Session, error) {
	sessionID, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	expiresAt := time.Now().Add(sessionDuration)

	query := `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES (?, ?, ?)
	`

	_, err = db.Exec(query, sessionID, userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	return session, nil
}

func ValidateSession(db *sql.DB, sessionID string, sessionDuration time.Duration) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT u.id, u.username, u.role, u.created_at
		FROM users u
		INNER JOIN sessions s ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > CURRENT_TIMESTAMP
	`

	err := db.QueryRow(query, sessionID).Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found or expired: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	err = RenewSession(db, sessionID, sessionDuration)
	if err != nil {
		logger.Warn("Failed to renew session",
			"session_id", sessionID,
			"error", err)
	}

	return user, nil
}

func RenewSession(db *sql.DB, sessionID string, sessionDuration time.Duration) error {
	// Sliding window - always extend on activity
	newExpiresAt := time.Now().Add(sessionDuration)

	updateQuery := `UPDATE sessions SET expires_at = ? WHERE id = ?`
	_, err := db.Exec(updateQuery, newExpiresAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}

	return nil
}

func DeleteSession(db *sql.DB, sessionID string) error {
	query := `DELETE FROM sessions WHERE id = ?`
	_, err := db.Exec(query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func CleanupExpiredSessions(db *sql.DB) error {
	query := `DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return nil
}

func CreateCSRFToken(db *sql.DB, userID int) (*models.CSRFToken, error) {
	token := uuid.New().String()
	expiresAt := time.Now().Add(1 * time.Hour)

	query := `
		INSERT INTO csrf_tokens (token, user_id, expires_at)
		VALUES (?, ?, ?)
	`

	_, err := db.Exec(query, token, userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSRF token: %w", err)
	}

	csrfToken := &models.CSRFToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	return csrfToken, nil
}

func ValidateCSRFToken(db *sql.DB, token string, userID int) error {
	query := `
		SELECT 1
		FROM csrf_tokens
		WHERE token = ? AND user_id = ? AND expires_at > CURRENT_TIMESTAMP
	`

	var exists int
	err := db.QueryRow(query, token, userID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("CSRF token not found or expired: %w", ErrForbidden)
		}
		return fmt.Errorf("failed to validate CSRF token: %w", err)
	}

	query = `DELETE FROM csrf_tokens WHERE token = ?`
	_, err = db.Exec(query, token)
	if err != nil {
		return fmt.Errorf("failed to delete used CSRF token: %w", err)
	}

	return nil
}

func CleanupExpiredCSRFTokens(db *sql.DB) error {
	query := `DELETE FROM csrf_tokens WHERE expires_at < CURRENT_TIMESTAMP`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired CSRF tokens: %w", err)
	}
	return nil
}

func generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
