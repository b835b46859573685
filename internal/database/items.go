package database

import (
	"database/sql"
	"fmt"
	"strings"

	"lootledger/internal/models"
)

const searchResultLimit = 10

func CreateItem(db *sql.DB, name, bossName, raidInstance, slotType string) (*models.Item, error) {
	query := `
		INSERT INTO items (name, boss_name, raid_instance, slot_type)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.Exec(query, name, bossName, raidInstance, slotType)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("an item with this name already exists: %w", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get item ID: %w", err)
	}

	return &models.Item{
		ID:           int(id),
		Name:         name,
		BossName:     bossName,
		RaidInstance: raidInstance,
		SlotType:     slotType,
	}, nil
}

func GetItem(db *sql.DB, itemID int) (*models.Item, error) {
	item := &models.Item{}
	query := `
		SELECT id, name, boss_name, raid_instance, COALESCE(slot_type, '')
		FROM items
		WHERE id = ?
	`

	err := db.QueryRow(query, itemID).Scan(
		&item.ID,
		&item.Name,
		&item.BossName,
		&item.RaidInstance,
		&item.SlotType,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	return item, nil
}

func UpdateItem(db *sql.DB, itemID int, name, bossName, raidInstance, slotType string) error {
	query := `
		UPDATE items
		SET name = ?, boss_name = ?, raid_instance = ?, slot_type = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, name, bossName, raidInstance, slotType, itemID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("an item with this name already exists: %w", ErrConflict)
		}
		return fmt.Errorf("failed to update item: %w", err)
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

func DeleteItem(db *sql.DB, itemID int) (*models.Item, error) {
	item, err := GetItem(db, itemID)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec("DELETE FROM items WHERE id = ?", itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete item: %w", err)
	}

	return item, nil
}

func GetAllItems(db *sql.DB) ([]models.Item, error) {
	return queryItems(db, `
		SELECT id, name, boss_name, raid_instance, COALESCE(slot_type, '')
		FROM items
		ORDER BY raid_instance, boss_name, name
	`)
}

// GetItemsByInstance lists the loot table of one raid instance, the
// way the signup form presents it.
func GetItemsByInstance(db *sql.DB, raidInstance string) ([]models.Item, error) {
	return queryItems(db, `
		SELECT id, name, boss_name, raid_instance, COALESCE(slot_type, '')
		FROM items
		WHERE raid_instance = ?
		ORDER BY boss_name, name
	`, raidInstance)
}

// SearchItems does a substring name search restricted to the given
// slot types, capped at 10 rows.
func SearchItems(db *sql.DB, nameQuery string, slotTypes []string) ([]models.Item, error) {
	if len(slotTypes) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(slotTypes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(slotTypes)+2)
	args = append(args, "%"+nameQuery+"%")
	for _, t := range slotTypes {
		args = append(args, t)
	}
	args = append(args, searchResultLimit)

	query := fmt.Sprintf(`
		SELECT id, name, boss_name, raid_instance, COALESCE(slot_type, '')
		FROM items
		WHERE name LIKE ? AND slot_type IN (%s)
		LIMIT ?
	`, placeholders)

	return queryItems(db, query, args...)
}

// GetRaidInstances returns the distinct raid instance names known to
// the item catalog.
func GetRaidInstances(db *sql.DB) ([]string, error) {
	return queryStrings(db, "SELECT DISTINCT raid_instance FROM items ORDER BY raid_instance")
}

func GetBossNames(db *sql.DB) ([]string, error) {
	return queryStrings(db, "SELECT DISTINCT boss_name FROM items ORDER BY boss_name")
}

// ItemImport is one row of a bulk item upload.
type ItemImport struct {
	Name         string
	BossName     string
	RaidInstance string
	SlotType     string
}

// ImportItems upserts catalog rows by item name in one transaction.
// Existing items keep their id, so ledger and wishlist references
// survive a re-import.
func ImportItems(db *sql.DB, items []ItemImport) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO items (name, boss_name, raid_instance, slot_type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			boss_name = excluded.boss_name,
			raid_instance = excluded.raid_instance,
			slot_type = excluded.slot_type
	`

	count := 0
	for _, item := range items {
		if _, err := tx.Exec(query, item.Name, item.BossName, item.RaidInstance, item.SlotType); err != nil {
			return 0, fmt.Errorf("failed to import item %q: %w", item.Name, err)
		}
		count++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit item import: %w", err)
	}

	return count, nil
}

func queryItems(db *sql.DB, query string, args ...interface{}) ([]models.Item, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.BossName,
			&item.RaidInstance,
			&item.SlotType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func queryStrings(db *sql.DB, query string, args ...interface{}) ([]string, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, value)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return values, nil
}
