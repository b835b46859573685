package database

import (
	"database/sql"
	"fmt"

	"lootledger/internal/models"
)

func GetAllUsers(db *sql.DB) ([]models.User, error) {
	query := `
		SELECT id, username, role, created_at
		FROM users
		ORDER BY username
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Role,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func SetUserRole(db *sql.DB, userID int, role string) (*models.User, error) {
	result, err := db.Exec("UPDATE users SET role = ? WHERE id = ?", role, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return GetUserByID(db, userID)
}

// DeleteUser removes an account. Characters owned by the user cascade,
// which in turn removes their signups, ledger rows and wishlists.
func DeleteUser(db *sql.DB, userID int) (*models.User, error) {
	user, err := GetUserByID(db, userID)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("DELETE FROM users WHERE id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	return user, nil
}
