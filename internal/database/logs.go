package database

import (
	"database/sql"
	"fmt"

	"lootledger/internal/models"
)

// Actions written to the audit log.
const (
	ActionRaidCreated    = "Raid Created"
	ActionRaidUpdated    = "Raid Updated"
	ActionRaidDeleted    = "Raid Deleted"
	ActionRaidLocked     = "Raid Locked"
	ActionRaidOpened     = "Raid Opened"
	ActionRaidCompleted  = "Raid Completed"
	ActionRaidRecounted  = "Raid Points Recounted"
	ActionSignupCanceled = "Signup Canceled"
	ActionSignupRemoved  = "Participant Removed"
	ActionItemAwarded    = "Item Awarded"
	ActionItemCreated    = "Item Created"
	ActionItemUpdated    = "Item Updated"
	ActionItemDeleted    = "Item Deleted"
	ActionItemsImported  = "Items Imported"
	ActionPointsAdjusted = "Points Manually Adjusted"

	ActionCharacterDeleted = "Admin: Character Deleted"
	ActionUserDeleted      = "Admin: User Deleted"
	ActionUserPromoted     = "Admin: User Promoted"
	ActionUserDemoted      = "Admin: User Demoted"
)

// LogAction appends an audit record. The acting user is embedded in
// the detail text; raidID may be nil for actions not tied to a raid.
// The log is append-only and never read back by the core operations.
func LogAction(db *sql.DB, actor, action, details string, raidID *int) error {
	fullDetails := fmt.Sprintf("[%s] %s", actor, details)
	_, err := db.Exec("INSERT INTO logs (action, details, raid_id) VALUES (?, ?, ?)", action, fullDetails, raidID)
	if err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return nil
}

func GetLogs(db *sql.DB) ([]models.LogEntry, error) {
	return queryLogs(db, "SELECT id, action, details, raid_id, timestamp FROM logs ORDER BY timestamp DESC")
}

// GetRaidLootLogs lists the item awards recorded for one raid, oldest
// first, for the archive detail page.
func GetRaidLootLogs(db *sql.DB, raidID int) ([]models.LogEntry, error) {
	return queryLogs(db, `
		SELECT id, action, details, raid_id, timestamp
		FROM logs
		WHERE raid_id = ? AND action = ?
		ORDER BY timestamp ASC
	`, raidID, ActionItemAwarded)
}

func queryLogs(db *sql.DB, query string, args ...interface{}) ([]models.LogEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		var raidID sql.NullInt64
		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.Details,
			&raidID,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		if raidID.Valid {
			id := int(raidID.Int64)
			entry.RaidID = &id
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating log entries: %w", err)
	}

	return entries, nil
}
