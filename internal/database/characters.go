package database

import (
	"database/sql"
	"fmt"
	"time"

	"lootledger/internal/models"
)

// CreateCharacter adds a character for the user. Character names are
// unique across the whole guild, not per account.
func CreateCharacter(db *sql.DB, userID int, name, class, roles string) (*models.Character, error) {
	query := `
		INSERT INTO characters (user_id, name, class, roles)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.Exec(query, userID, name, class, roles)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("a character with this name already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create character: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get character ID: %w", err)
	}

	character := &models.Character{
		ID:        int(id),
		UserID:    userID,
		Name:      name,
		Class:     class,
		Roles:     roles,
		CreatedAt: time.Now(),
	}

	return character, nil
}

// GetCharacter looks up a character owned by the user. A character
// belonging to someone else is reported as not found, not forbidden.
func GetCharacter(db *sql.DB, userID, characterID int) (*models.Character, error) {
	character := &models.Character{}
	query := `
		SELECT id, user_id, name, class, roles, created_at
		FROM characters
		WHERE id = ? AND user_id = ?
	`

	err := db.QueryRow(query, characterID, userID).Scan(
		&character.ID,
		&character.UserID,
		&character.Name,
		&character.Class,
		&character.Roles,
		&character.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query character: %w", err)
	}

	return character, nil
}

func GetCharacters(db *sql.DB, userID int) ([]models.Character, error) {
	query := `
		SELECT id, user_id, name, class, roles, created_at
		FROM characters
		WHERE user_id = ?
		ORDER BY name
	`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	var characters []models.Character
	for rows.Next() {
		var character models.Character
		err := rows.Scan(
			&character.ID,
			&character.UserID,
			&character.Name,
			&character.Class,
			&character.Roles,
			&character.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, character)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating characters: %w", err)
	}

	return characters, nil
}

func UpdateCharacter(db *sql.DB, userID, characterID int, name, class, roles string) error {
	query := `
		UPDATE characters
		SET name = ?, class = ?, roles = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := db.Exec(query, name, class, roles, characterID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("a character with this name already exists: %w", ErrConflict)
		}
		return fmt.Errorf("failed to update character: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteCharacter removes an owned character. Signups, reservations,
// ledger rows and wishlist entries cascade with it.
func DeleteCharacter(db *sql.DB, userID, characterID int) error {
	result, err := db.Exec("DELETE FROM characters WHERE id = ? AND user_id = ?", characterID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// CharacterOwnedBy reports whether the character exists and belongs to
// the user. Used by the JSON APIs for ownership checks before reads.
func CharacterOwnedBy(db *sql.DB, characterID, userID int) (bool, error) {
	var exists int
	err := db.QueryRow("SELECT 1 FROM characters WHERE id = ? AND user_id = ?", characterID, userID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check character ownership: %w", err)
	}
	return true, nil
}

// GetAllCharacters lists every character with its owner's username,
// for the admin roster page.
func GetAllCharacters(db *sql.DB) ([]models.Character, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.class, c.roles, c.created_at, u.username
		FROM characters c
		JOIN users u ON c.user_id = u.id
		ORDER BY c.name
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	var characters []models.Character
	for rows.Next() {
		var character models.Character
		err := rows.Scan(
			&character.ID,
			&character.UserID,
			&character.Name,
			&character.Class,
			&character.Roles,
			&character.CreatedAt,
			&character.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, character)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating characters: %w", err)
	}

	return characters, nil
}

// AdminDeleteCharacter removes any character regardless of owner.
func AdminDeleteCharacter(db *sql.DB, characterID int) (*models.Character, error) {
	character := &models.Character{}
	query := `
		SELECT id, user_id, name, class, roles, created_at
		FROM characters
		WHERE id = ?
	`
	err := db.QueryRow(query, characterID).Scan(
		&character.ID,
		&character.UserID,
		&character.Name,
		&character.Class,
		&character.Roles,
		&character.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query character: %w", err)
	}

	_, err = db.Exec("DELETE FROM characters WHERE id = ?", characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete character: %w", err)
	}

	return character, nil
}
