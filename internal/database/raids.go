package database

import (
	"database/sql"
	"fmt"
	"time"

	"lootledger/internal/models"
)

const raidColumns = "id, raid_instance, COALESCE(title, ''), raid_date, raid_time, status, points_settled, created_at"

func CreateRaid(db *sql.DB, raidInstance, title, date, timeOfDay string) (*models.Raid, error) {
	query := `
		INSERT INTO raids (raid_instance, title, raid_date, raid_time)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.Exec(query, raidInstance, title, date, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to create raid: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get raid ID: %w", err)
	}

	return &models.Raid{
		ID:           int(id),
		RaidInstance: raidInstance,
		Title:        title,
		Date:         date,
		Time:         timeOfDay,
		Status:       models.RaidStatusOpen,
		CreatedAt:    time.Now(),
	}, nil
}

func GetRaid(db *sql.DB, raidID int) (*models.Raid, error) {
	row := db.QueryRow("SELECT "+raidColumns+" FROM raids WHERE id = ?", raidID)
	raid, err := scanRaid(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query raid: %w", err)
	}
	return raid, nil
}

// GetActiveRaids lists raids that are not yet completed, newest first.
func GetActiveRaids(db *sql.DB) ([]models.Raid, error) {
	return queryRaids(db, `
		SELECT `+raidColumns+`
		FROM raids
		WHERE status != ?
		ORDER BY raid_date DESC, raid_time DESC
	`, models.RaidStatusCompleted)
}

// GetArchivedRaids lists completed raids for the archive.
func GetArchivedRaids(db *sql.DB) ([]models.Raid, error) {
	return queryRaids(db, `
		SELECT `+raidColumns+`
		FROM raids
		WHERE status = ?
		ORDER BY raid_date DESC, raid_time DESC
	`, models.RaidStatusCompleted)
}

func UpdateRaid(db *sql.DB, raidID int, raidInstance, title, date, timeOfDay string) error {
	query := `
		UPDATE raids
		SET raid_instance = ?, title = ?, raid_date = ?, raid_time = ?
		WHERE id = ?
	`

	result, err := db.Exec(query, raidInstance, title, date, timeOfDay, raidID)
	if err != nil {
		return fmt.Errorf("failed to update raid: %w", err)
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

// ToggleRaidLock flips a raid between Open and Started. Locking an
// Open raid settles points exactly once: the settled-flag check, the
// grants and the flag update share one transaction, so two concurrent
// lock attempts cannot double-grant. Unlocking never reverses points;
// a later re-lock sees points_settled already true and grants nothing.
// Returns the updated raid and the number of points granted.
func ToggleRaidLock(db *sql.DB, raidID int) (*models.Raid, int, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT "+raidColumns+" FROM raids WHERE id = ?", raidID)
	raid, err := scanRaid(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("failed to query raid: %w", err)
	}

	granted := 0
	switch raid.Status {
	case models.RaidStatusOpen:
		if !raid.PointsSettled {
			granted, err = settleRaidPoints(tx, raidID)
			if err != nil {
				return nil, 0, err
			}
			if _, err := tx.Exec("UPDATE raids SET points_settled = 1 WHERE id = ?", raidID); err != nil {
				return nil, 0, fmt.Errorf("failed to mark raid settled: %w", err)
			}
			raid.PointsSettled = true
		}
		raid.Status = models.RaidStatusStarted
	case models.RaidStatusStarted:
		raid.Status = models.RaidStatusOpen
	default:
		return nil, 0, ErrInvalidTransition
	}

	if _, err := tx.Exec("UPDATE raids SET status = ? WHERE id = ?", raid.Status, raidID); err != nil {
		return nil, 0, fmt.Errorf("failed to update raid status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit raid lock toggle: %w", err)
	}

	return raid, granted, nil
}

// CompleteRaid finalizes a raid. Completed is terminal; finalizing an
// already completed raid is rejected.
func CompleteRaid(db *sql.DB, raidID int) (*models.Raid, error) {
	raid, err := GetRaid(db, raidID)
	if err != nil {
		return nil, err
	}
	if raid.IsCompleted() {
		return nil, ErrInvalidTransition
	}

	_, err = db.Exec("UPDATE raids SET status = ? WHERE id = ?", models.RaidStatusCompleted, raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete raid: %w", err)
	}

	raid.Status = models.RaidStatusCompleted
	return raid, nil
}

// DeleteRaid removes a raid and its signups. For a settled raid the
// granted points are reversed first, inside the same transaction as
// the delete.
func DeleteRaid(db *sql.DB, raidID int) (*models.Raid, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT "+raidColumns+" FROM raids WHERE id = ?", raidID)
	raid, err := scanRaid(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query raid: %w", err)
	}

	if raid.PointsSettled {
		if err := reverseRaidPoints(tx, raidID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec("DELETE FROM raids WHERE id = ?", raidID); err != nil {
		return nil, fmt.Errorf("failed to delete raid: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit raid delete: %w", err)
	}

	return raid, nil
}

// RecountRaidPoints reverses and re-grants a settled raid's points in
// one transaction, re-deriving the ledger from the current signup
// roster. Only settled raids can be recounted.
func RecountRaidPoints(db *sql.DB, raidID int) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT "+raidColumns+" FROM raids WHERE id = ?", raidID)
	raid, err := scanRaid(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to query raid: %w", err)
	}

	if !raid.PointsSettled {
		return 0, ErrInvalidTransition
	}

	if err := reverseRaidPoints(tx, raidID); err != nil {
		return 0, err
	}

	granted, err := settleRaidPoints(tx, raidID)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit recount: %w", err)
	}

	return granted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRaid(row rowScanner) (*models.Raid, error) {
	raid := &models.Raid{}
	err := row.Scan(
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
		return nil, err
	}
	return raid, nil
}

func queryRaids(db *sql.DB, query string, args ...interface{}) ([]models.Raid, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query raids: %w", err)
	}
	defer rows.Close()

	var raids []models.Raid
	for rows.Next() {
		raid, err := scanRaid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raid: %w", err)
		}
		raids = append(raids, *raid)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raids: %w", err)
	}

	return raids, nil
}
