package database

import (
	"database/sql"
	"fmt"
	"strings"

	"lootledger/internal/models"
)

func GetWishlist(db *sql.DB, characterID int) ([]models.WishlistEntry, error) {
	query := `
		SELECT w.character_id, w.item_id, w.priority, i.name
		FROM wishlist w
		JOIN items i ON w.item_id = i.id
		WHERE w.character_id = ?
		ORDER BY w.priority ASC
	`

	rows, err := db.Query(query, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var entries []models.WishlistEntry
	for rows.Next() {
		var entry models.WishlistEntry
		err := rows.Scan(
			&entry.CharacterID,
			&entry.ItemID,
			&entry.Priority,
			&entry.ItemName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return entries, nil
}

// AddWishlistItem puts an item on the character's wishlist at the
// lowest unused priority (the first gap, not necessarily count+1).
// A full wishlist is a conflict; adding an item that is already listed
// is a silent no-op.
func AddWishlistItem(db *sql.DB, characterID, itemID, maxSlots int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRow("SELECT COUNT(item_id) FROM wishlist WHERE character_id = ?", characterID).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count wishlist entries: %w", err)
	}
	if count >= maxSlots {
		return ErrWishlistFull
	}

	rows, err := tx.Query("SELECT priority FROM wishlist WHERE character_id = ?", characterID)
	if err != nil {
		return fmt.Errorf("failed to query priorities: %w", err)
	}
	used := make(map[int]bool)
	for rows.Next() {
		var priority int
		if err := rows.Scan(&priority); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan priority: %w", err)
		}
		used[priority] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating priorities: %w", err)
	}
	rows.Close()

	next := 1
	for used[next] {
		next++
	}

	_, err = tx.Exec("INSERT OR IGNORE INTO wishlist (character_id, item_id, priority) VALUES (?, ?, ?)", characterID, itemID, next)
	if err != nil {
		return fmt.Errorf("failed to add wishlist entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wishlist add: %w", err)
	}

	return nil
}

// RemoveWishlistItem deletes the entry and renumbers the remaining
// entries to a dense 1..N sequence, preserving their relative order.
func RemoveWishlistItem(db *sql.DB, characterID, itemID int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM wishlist WHERE character_id = ? AND item_id = ?", characterID, itemID); err != nil {
		return fmt.Errorf("failed to delete wishlist entry: %w", err)
	}

	rows, err := tx.Query("SELECT item_id FROM wishlist WHERE character_id = ? ORDER BY priority ASC", characterID)
	if err != nil {
		return fmt.Errorf("failed to query wishlist: %w", err)
	}
	var remaining []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		remaining = append(remaining, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating wishlist: %w", err)
	}
	rows.Close()

	for i, id := range remaining {
		if _, err := tx.Exec("UPDATE wishlist SET priority = ? WHERE character_id = ? AND item_id = ?", i+1, characterID, id); err != nil {
			return fmt.Errorf("failed to renumber wishlist: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wishlist removal: %w", err)
	}

	return nil
}

// MoveWishlistItem swaps the entry with its neighbor one priority up
// or down. Moving up from priority 1 and moving down past the last
// entry are no-ops that still succeed.
func MoveWishlistItem(db *sql.DB, characterID, itemID int, direction string) error {
	if direction != "up" && direction != "down" {
		return fmt.Errorf("unknown direction %q", direction)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRow("SELECT priority FROM wishlist WHERE character_id = ? AND item_id = ?", characterID, itemID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query wishlist entry: %w", err)
	}

	var target int
	switch {
	case direction == "up" && current > 1:
		target = current - 1
	case direction == "down":
		target = current + 1
	default:
		// Up at the top of the list.
		return nil
	}

	var neighborItemID int
	err = tx.QueryRow("SELECT item_id FROM wishlist WHERE character_id = ? AND priority = ?", characterID, target).Scan(&neighborItemID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Down past the last entry.
			return nil
		}
		return fmt.Errorf("failed to query neighbor entry: %w", err)
	}

	if _, err := tx.Exec("UPDATE wishlist SET priority = ? WHERE character_id = ? AND item_id = ?", target, characterID, itemID); err != nil {
		return fmt.Errorf("failed to move wishlist entry: %w", err)
	}
	if _, err := tx.Exec("UPDATE wishlist SET priority = ? WHERE character_id = ? AND item_id = ?", current, characterID, neighborItemID); err != nil {
		return fmt.Errorf("failed to move neighbor entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wishlist move: %w", err)
	}

	return nil
}

// GetWishlistComparisons builds the advisory competition view for one
// raid: for every wishlist item of this raid's instance, the
// character's own balance, how many other signed-up characters
// reserved the item, and the highest balance among them. Purely
// informational snapshot reads, nothing is mutated.
func GetWishlistComparisons(db *sql.DB, raidID, characterID int) ([]models.WishlistComparison, error) {
	var raidInstance string
	err := db.QueryRow("SELECT raid_instance FROM raids WHERE id = ?", raidID).Scan(&raidInstance)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query raid: %w", err)
	}

	rows, err := db.Query(`
		SELECT w.item_id, w.priority, i.name
		FROM wishlist w
		JOIN items i ON w.item_id = i.id
		WHERE w.character_id = ? AND i.raid_instance = ?
		ORDER BY w.priority
	`, characterID, raidInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var comparisons []models.WishlistComparison
	for rows.Next() {
		var comparison models.WishlistComparison
		if err := rows.Scan(&comparison.ItemID, &comparison.Priority, &comparison.ItemName); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist entry: %w", err)
		}
		comparisons = append(comparisons, comparison)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	competitors, err := raidCompetitors(db, raidID, characterID)
	if err != nil {
		return nil, err
	}

	for i := range comparisons {
		comparison := &comparisons[i]

		ownPoints, err := GetPoints(db, characterID, comparison.ItemID)
		if err != nil {
			return nil, err
		}
		comparison.OwnPoints = ownPoints

		competitorIDs := competitors[comparison.ItemID]
		comparison.CompetitorCount = len(competitorIDs)
		if len(competitorIDs) == 0 {
			continue
		}

		maxPoints, err := maxPointsAmong(db, competitorIDs, comparison.ItemID)
		if err != nil {
			return nil, err
		}
		comparison.CompetitorMaxPoints = &maxPoints
	}

	return comparisons, nil
}

// raidCompetitors maps item id to the other characters on the raid
// that reserved it.
func raidCompetitors(db *sql.DB, raidID, characterID int) (map[int][]int, error) {
	rows, err := db.Query(`
		SELECT r.item_id, s.character_id
		FROM reservations r
		JOIN signups s ON r.signup_id = s.id
		WHERE s.raid_id = ? AND s.character_id != ?
	`, raidID, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competing reservations: %w", err)
	}
	defer rows.Close()

	competitors := make(map[int][]int)
	for rows.Next() {
		var itemID, competitorID int
		if err := rows.Scan(&itemID, &competitorID); err != nil {
			return nil, fmt.Errorf("failed to scan competing reservation: %w", err)
		}
		competitors[itemID] = append(competitors[itemID], competitorID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competing reservations: %w", err)
	}

	return competitors, nil
}

func maxPointsAmong(db *sql.DB, characterIDs []int, itemID int) (int, error) {
	placeholders := strings.Repeat("?,", len(characterIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(characterIDs)+1)
	for _, id := range characterIDs {
		args = append(args, id)
	}
	args = append(args, itemID)

	var maxPoints sql.NullInt64
	query := fmt.Sprintf(`
		SELECT MAX(points) FROM loot_points WHERE character_id IN (%s) AND item_id = ?
	`, placeholders)
	err := db.QueryRow(query, args...).Scan(&maxPoints)
	if err != nil {
		return 0, fmt.Errorf("failed to query competitor points: %w", err)
	}

	if !maxPoints.Valid {
		return 0, nil
	}
	return int(maxPoints.Int64), nil
}
