package database

import (
	"database/sql"
	"fmt"

	"lootledger/internal/models"
)

// CreateSignup registers a character for an Open raid together with
// its item reservations. Duplicate item ids collapse to one
// reservation; duplicate signups for the same raid are rejected unless
// allowDuplicates is set. maxReservations caps the number of distinct
// reserved items (0 disables the cap).
func CreateSignup(db *sql.DB, userID, raidID, characterID int, role string, itemIDs []int, allowDuplicates bool, maxReservations int) (*models.Signup, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow("SELECT status FROM raids WHERE id = ?", raidID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query raid: %w", err)
	}
	if status != models.RaidStatusOpen {
		return nil, fmt.Errorf("signups are closed for this raid: %w", ErrInvalidTransition)
	}

	var owned int
	err = tx.QueryRow("SELECT 1 FROM characters WHERE id = ? AND user_id = ?", characterID, userID).Scan(&owned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to check character ownership: %w", err)
	}

	if !allowDuplicates {
		var exists int
		err = tx.QueryRow("SELECT 1 FROM signups WHERE character_id = ? AND raid_id = ?", characterID, raidID).Scan(&exists)
		if err == nil {
			return nil, fmt.Errorf("character is already signed up for this raid: %w", ErrConflict)
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check for duplicate signup: %w", err)
		}
	}

	// Collapse duplicate item ids; reservations are a set per signup.
	seen := make(map[int]bool, len(itemIDs))
	var unique []int
	for _, itemID := range itemIDs {
		if itemID == 0 || seen[itemID] {
			continue
		}
		seen[itemID] = true
		unique = append(unique, itemID)
	}

	if maxReservations > 0 && len(unique) > maxReservations {
		return nil, fmt.Errorf("too many reservations for role %s (max %d): %w", role, maxReservations, ErrConflict)
	}

	result, err := tx.Exec("INSERT INTO signups (character_id, raid_id, role) VALUES (?, ?, ?)", characterID, raidID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to create signup: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get signup ID: %w", err)
	}

	for _, itemID := range unique {
		_, err := tx.Exec("INSERT OR IGNORE INTO reservations (signup_id, item_id) VALUES (?, ?)", id, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to create reservation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit signup: %w", err)
	}

	return &models.Signup{
		ID:          int(id),
		CharacterID: characterID,
		RaidID:      raidID,
		Role:        role,
	}, nil
}

// GetUserSignups lists the user's signups on raids that are not yet
// completed, for the "my signups" page.
func GetUserSignups(db *sql.DB, userID int) ([]models.Signup, error) {
	query := `
		SELECT s.id, s.character_id, s.raid_id, s.role, c.name,
		       r.id, r.raid_instance, COALESCE(r.title, ''), r.raid_date, r.raid_time, r.status, r.points_settled, r.created_at
		FROM signups s
		JOIN characters c ON s.character_id = c.id
		JOIN raids r ON s.raid_id = r.id
		WHERE c.user_id = ? AND r.status != ?
		ORDER BY r.raid_date, r.raid_time
	`

	rows, err := db.Query(query, userID, models.RaidStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query signups: %w", err)
	}
	defer rows.Close()

	var signups []models.Signup
	for rows.Next() {
		var signup models.Signup
		raid := &models.Raid{}
		err := rows.Scan(
			&signup.ID,
			&signup.CharacterID,
			&signup.RaidID,
			&signup.Role,
			&signup.CharacterName,
			&raid.ID,
			&raid.RaidInstance,
			&raid.Title,
			&raid.Date,
			&raid.Time,
			&raid.Status,
			&raid.PointsSettled,
			&raid.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		signup.Raid = raid
		signups = append(signups, signup)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signups: %w", err)
	}

	return signups, nil
}

// GetRaidSignups lists the raid roster with character names.
func GetRaidSignups(db *sql.DB, raidID int) ([]models.Signup, error) {
	query := `
		SELECT s.id, s.character_id, s.raid_id, s.role, c.name
		FROM signups s
		JOIN characters c ON s.character_id = c.id
		WHERE s.raid_id = ?
		ORDER BY c.name
	`

	rows, err := db.Query(query, raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signups: %w", err)
	}
	defer rows.Close()

	var signups []models.Signup
	for rows.Next() {
		var signup models.Signup
		err := rows.Scan(
			&signup.ID,
			&signup.CharacterID,
			&signup.RaidID,
			&signup.Role,
			&signup.CharacterName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		signups = append(signups, signup)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signups: %w", err)
	}

	return signups, nil
}

// GetSignupReservations lists a signup's reserved items with the
// character's current balance for each, zero when no ledger row
// exists.
func GetSignupReservations(db *sql.DB, signupID, characterID int) ([]models.Reservation, error) {
	query := `
		SELECT r.signup_id, r.item_id, i.name, IFNULL(lp.points, 0)
		FROM reservations r
		JOIN items i ON r.item_id = i.id
		LEFT JOIN loot_points lp ON r.item_id = lp.item_id AND lp.character_id = ?
		WHERE r.signup_id = ?
		ORDER BY i.name
	`

	rows, err := db.Query(query, characterID, signupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var reservation models.Reservation
		err := rows.Scan(
			&reservation.SignupID,
			&reservation.ItemID,
			&reservation.ItemName,
			&reservation.Points,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	return reservations, nil
}

// GetRaidParticipantEmails returns the distinct notification
// addresses of users with a character signed up for the raid. Users
// without an address are skipped.
func GetRaidParticipantEmails(db *sql.DB, raidID int) ([]string, error) {
	query := `
		SELECT DISTINCT u.email
		FROM signups s
		JOIN characters c ON s.character_id = c.id
		JOIN users u ON c.user_id = u.id
		WHERE s.raid_id = ? AND u.email IS NOT NULL
	`

	rows, err := db.Query(query, raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participant emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emails: %w", err)
	}

	return emails, nil
}

// CancelSignup is the member's own cancellation, allowed only while
// the raid is Open. If the raid's points were already settled (the
// raid was locked and reopened), the granted points are reversed; a
// signup cancelled before settlement never had points to reverse.
func CancelSignup(db *sql.DB, userID, signupID int) (*models.Signup, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var signup models.Signup
	var ownerID int
	var status string
	var settled bool
	err = tx.QueryRow(`
		SELECT s.id, s.character_id, s.raid_id, s.role, c.name, c.user_id, r.status, r.points_settled
		FROM signups s
		JOIN characters c ON s.character_id = c.id
		JOIN raids r ON s.raid_id = r.id
		WHERE s.id = ?
	`, signupID).Scan(&signup.ID, &signup.CharacterID, &signup.RaidID, &signup.Role, &signup.CharacterName, &ownerID, &status, &settled)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query signup: %w", err)
	}

	if ownerID != userID {
		return nil, ErrNotFound
	}
	if status != models.RaidStatusOpen {
		return nil, fmt.Errorf("the raid is already locked: %w", ErrInvalidTransition)
	}

	if settled {
		if err := reverseSignupPoints(tx, signup.CharacterID, signupID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec("DELETE FROM signups WHERE id = ?", signupID); err != nil {
		return nil, fmt.Errorf("failed to delete signup: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return &signup, nil
}

// RemoveSignup is the admin's removal of a participant, allowed in any
// raid status. Points are reversed only when the raid has settled.
func RemoveSignup(db *sql.DB, signupID int) (*models.Signup, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var signup models.Signup
	var settled bool
	err = tx.QueryRow(`
		SELECT s.id, s.character_id, s.raid_id, s.role, c.name, r.points_settled
		FROM signups s
		JOIN characters c ON s.character_id = c.id
		JOIN raids r ON s.raid_id = r.id
		WHERE s.id = ?
	`, signupID).Scan(&signup.ID, &signup.CharacterID, &signup.RaidID, &signup.Role, &signup.CharacterName, &settled)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query signup: %w", err)
	}

	if settled {
		if err := reverseSignupPoints(tx, signup.CharacterID, signupID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec("DELETE FROM signups WHERE id = ?", signupID); err != nil {
		return nil, fmt.Errorf("failed to delete signup: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit removal: %w", err)
	}

	return &signup, nil
}
