package database

import (
	"database/sql"
	"fmt"

	"lootledger/internal/models"
)

// The settlement engine. Granting and reversing always work on a
// *sql.Tx so that a raid lock, signup removal or recount either applies
// to every ledger row it touches or to none of them. Callers guard
// idempotence with the raid's points_settled flag; the engine itself
// does not deduplicate grants.

// signupItemCounts groups a signup's reservations by item. Under the
// current uniqueness rules every count is 1, but the settlement math
// stays correct if duplicate reservations are ever allowed.
func signupItemCounts(tx *sql.Tx, signupID int) (map[int]int, error) {
	rows, err := tx.Query(`
		SELECT item_id, COUNT(*)
		FROM reservations
		WHERE signup_id = ?
		GROUP BY item_id
	`, signupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var itemID, count int
		if err := rows.Scan(&itemID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan reservation count: %w", err)
		}
		counts[itemID] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservation counts: %w", err)
	}

	return counts, nil
}

// grantSignupPoints credits the signup's character one point per
// reserved item occurrence, creating ledger rows as needed. Returns
// the number of points granted.
func grantSignupPoints(tx *sql.Tx, characterID, signupID int) (int, error) {
	counts, err := signupItemCounts(tx, signupID)
	if err != nil {
		return 0, err
	}

	granted := 0
	for itemID, count := range counts {
		_, err := tx.Exec(`
			INSERT INTO loot_points (character_id, item_id, points)
			VALUES (?, ?, ?)
			ON CONFLICT(character_id, item_id) DO UPDATE SET points = points + excluded.points
		`, characterID, itemID, count)
		if err != nil {
			return 0, fmt.Errorf("failed to grant points: %w", err)
		}
		granted += count
	}

	return granted, nil
}

// reverseSignupPoints debits what grantSignupPoints credited. Each
// line is a conditional decrement: the subtraction only applies when
// the current balance covers it, so a balance that was already reduced
// below the reversal amount is left untouched rather than clamped or
// driven negative.
func reverseSignupPoints(tx *sql.Tx, characterID, signupID int) error {
	counts, err := signupItemCounts(tx, signupID)
	if err != nil {
		return err
	}

	for itemID, count := range counts {
		_, err := tx.Exec(`
			UPDATE loot_points
			SET points = points - ?
			WHERE character_id = ? AND item_id = ? AND points >= ?
		`, count, characterID, itemID, count)
		if err != nil {
			return fmt.Errorf("failed to reverse points: %w", err)
		}
	}

	return nil
}

// settleRaidPoints grants points for every reservation under every
// signup of the raid. The caller flips points_settled in the same
// transaction.
func settleRaidPoints(tx *sql.Tx, raidID int) (int, error) {
	signups, err := raidSignupRows(tx, raidID)
	if err != nil {
		return 0, err
	}

	granted := 0
	for _, s := range signups {
		n, err := grantSignupPoints(tx, s.characterID, s.id)
		if err != nil {
			return 0, err
		}
		granted += n
	}

	return granted, nil
}

func reverseRaidPoints(tx *sql.Tx, raidID int) error {
	signups, err := raidSignupRows(tx, raidID)
	if err != nil {
		return err
	}

	for _, s := range signups {
		if err := reverseSignupPoints(tx, s.characterID, s.id); err != nil {
			return err
		}
	}

	return nil
}

type signupRow struct {
	id          int
	characterID int
}

func raidSignupRows(tx *sql.Tx, raidID int) ([]signupRow, error) {
	rows, err := tx.Query("SELECT id, character_id FROM signups WHERE raid_id = ?", raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signups: %w", err)
	}
	defer rows.Close()

	var signups []signupRow
	for rows.Next() {
		var s signupRow
		if err := rows.Scan(&s.id, &s.characterID); err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		signups = append(signups, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signups: %w", err)
	}

	return signups, nil
}

// GetPoints reads one ledger cell. An absent row counts as zero.
func GetPoints(db *sql.DB, characterID, itemID int) (int, error) {
	var points int
	err := db.QueryRow(`
		SELECT points FROM loot_points WHERE character_id = ? AND item_id = ?
	`, characterID, itemID).Scan(&points)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query points: %w", err)
	}
	return points, nil
}

// SetPoints overwrites one ledger cell, the admin's manual adjustment.
func SetPoints(db *sql.DB, characterID, itemID, points int) error {
	_, err := db.Exec(`
		INSERT INTO loot_points (character_id, item_id, points)
		VALUES (?, ?, ?)
		ON CONFLICT(character_id, item_id) DO UPDATE SET points = excluded.points
	`, characterID, itemID, points)
	if err != nil {
		return fmt.Errorf("failed to set points: %w", err)
	}
	return nil
}

// AwardItem zeroes the winner's balance for the item and returns the
// balance they spent. Characters without a ledger row report zero.
func AwardItem(db *sql.DB, characterID, itemID int) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous int
	err = tx.QueryRow(`
		SELECT points FROM loot_points WHERE character_id = ? AND item_id = ?
	`, characterID, itemID).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query points: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE loot_points SET points = 0 WHERE character_id = ? AND item_id = ?
	`, characterID, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to zero points: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit award: %w", err)
	}

	return previous, nil
}

var ledgerSortColumns = map[string]string{
	"item_name":      "item_name",
	"character_name": "character_name",
	"points":         "points",
}

// GetLedgerOverview lists every positive ledger balance with item and
// character names. sortBy and order are checked against a whitelist
// before being spliced into the query.
func GetLedgerOverview(db *sql.DB, sortBy, order string) ([]models.LedgerEntry, error) {
	column, ok := ledgerSortColumns[sortBy]
	if !ok {
		column = "item_name"
	}
	if order != "desc" {
		order = "asc"
	}

	query := fmt.Sprintf(`
		SELECT lp.character_id, lp.item_id, lp.points, c.name AS character_name, i.name AS item_name
		FROM loot_points lp
		JOIN characters c ON lp.character_id = c.id
		JOIN items i ON lp.item_id = i.id
		WHERE lp.points > 0
		ORDER BY %s %s
	`, column, order)

	return queryLedgerEntries(db, query)
}

// GetCharacterPoints lists the character's positive balances, highest
// first.
func GetCharacterPoints(db *sql.DB, characterID int) ([]models.LedgerEntry, error) {
	query := `
		SELECT lp.character_id, lp.item_id, lp.points, c.name AS character_name, i.name AS item_name
		FROM loot_points lp
		JOIN characters c ON lp.character_id = c.id
		JOIN items i ON lp.item_id = i.id
		WHERE lp.character_id = ? AND lp.points > 0
		ORDER BY lp.points DESC
	`

	return queryLedgerEntries(db, query, characterID)
}

func queryLedgerEntries(db *sql.DB, query string, args ...interface{}) ([]models.LedgerEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.CharacterID,
			&entry.ItemID,
			&entry.Points,
			&entry.CharacterName,
			&entry.ItemName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}
