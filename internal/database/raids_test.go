package database

import (
	"errors"
	"testing"

	"lootledger/internal/models"
)

func TestRaidLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	raid := createTestRaid(t, db, "Naxxramas")
	if raid.Status != models.RaidStatusOpen {
		t.Errorf("Expected new raid to be Open, got %s", raid.Status)
	}

	started, _, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to lock raid:", err)
	}
	if started.Status != models.RaidStatusStarted {
		t.Errorf("Expected Started, got %s", started.Status)
	}

	reopened, _, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to reopen raid:", err)
	}
	if reopened.Status != models.RaidStatusOpen {
		t.Errorf("Expected Open, got %s", reopened.Status)
	}

	completed, err := CompleteRaid(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to complete raid:", err)
	}
	if completed.Status != models.RaidStatusCompleted {
		t.Errorf("Expected Completed, got %s", completed.Status)
	}

	// Completed is terminal.
	_, _, err = ToggleRaidLock(db, raid.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition toggling a completed raid, got %v", err)
	}

	_, err = CompleteRaid(db, raid.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition completing twice, got %v", err)
	}
}

func TestCompleteRaidFromStarted(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	raid := createTestRaid(t, db, "Naxxramas")

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to lock raid:", err)
	}

	completed, err := CompleteRaid(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to complete started raid:", err)
	}
	if completed.Status != models.RaidStatusCompleted {
		t.Errorf("Expected Completed, got %s", completed.Status)
	}
}

func TestActiveAndArchivedRaidLists(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	open := createTestRaid(t, db, "Naxxramas")
	done := createTestRaid(t, db, "Karazhan")

	if _, err := CompleteRaid(db, done.ID); err != nil {
		t.Fatal("Failed to complete raid:", err)
	}

	active, err := GetActiveRaids(db)
	if err != nil {
		t.Fatal("Failed to get active raids:", err)
	}
	if len(active) != 1 || active[0].ID != open.ID {
		t.Errorf("Expected only the open raid in the active list, got %d raids", len(active))
	}

	archived, err := GetArchivedRaids(db)
	if err != nil {
		t.Fatal("Failed to get archived raids:", err)
	}
	if len(archived) != 1 || archived[0].ID != done.ID {
		t.Errorf("Expected only the completed raid in the archive, got %d raids", len(archived))
	}
}

func TestRaidNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := GetRaid(db, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err = UpdateRaid(db, 9999, "Naxxramas", "Title", "2026-09-05", "20:00")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update, got %v", err)
	}

	_, err = DeleteRaid(db, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestUpdateRaid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	raid := createTestRaid(t, db, "Naxxramas")

	err := UpdateRaid(db, raid.ID, "Karazhan", "Moved raid", "2026-09-12", "19:30")
	if err != nil {
		t.Fatal("Failed to update raid:", err)
	}

	got, err := GetRaid(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to get raid:", err)
	}
	if got.RaidInstance != "Karazhan" || got.Title != "Moved raid" || got.Date != "2026-09-12" {
		t.Errorf("Raid fields not updated: %+v", got)
	}
}
