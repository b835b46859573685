package database

import (
	"errors"
	"testing"

	"lootledger/internal/models"
)

func TestRaidLockSettlesPointsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	ring := createTestItem(t, db, "Band of the Fallen", "Naxxramas", "Ring")
	raid := createTestRaid(t, db, "Naxxramas")

	signUp(t, db, user.ID, raid.ID, character.ID, sword.ID, ring.ID)

	locked, granted, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to lock raid:", err)
	}
	if locked.Status != models.RaidStatusStarted {
		t.Errorf("Expected status Started, got %s", locked.Status)
	}
	if granted != 2 {
		t.Errorf("Expected 2 points granted, got %d", granted)
	}

	points, err := GetPoints(db, character.ID, sword.ID)
	if err != nil {
		t.Fatal("Failed to get points:", err)
	}
	if points != 1 {
		t.Errorf("Expected 1 point on the sword, got %d", points)
	}

	// Unlocking must not reverse anything.
	reopened, granted, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to reopen raid:", err)
	}
	if reopened.Status != models.RaidStatusOpen {
		t.Errorf("Expected status Open, got %s", reopened.Status)
	}
	if granted != 0 {
		t.Errorf("Expected no points granted on unlock, got %d", granted)
	}

	points, _ = GetPoints(db, character.ID, sword.ID)
	if points != 1 {
		t.Errorf("Expected sword points to survive unlock, got %d", points)
	}

	// Re-locking a settled raid must not grant again.
	relocked, granted, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to re-lock raid:", err)
	}
	if !relocked.PointsSettled {
		t.Error("Expected raid to stay settled")
	}
	if granted != 0 {
		t.Errorf("Expected no points granted on re-lock, got %d", granted)
	}

	points, _ = GetPoints(db, character.ID, sword.ID)
	if points != 1 {
		t.Errorf("Expected 1 point after re-lock, got %d", points)
	}
	points, _ = GetPoints(db, character.ID, ring.ID)
	if points != 1 {
		t.Errorf("Expected 1 point on the ring, got %d", points)
	}
}

func TestDuplicateReservationsCollapse(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	ring := createTestItem(t, db, "Band of the Fallen", "Naxxramas", "Ring")
	raid := createTestRaid(t, db, "Naxxramas")

	// The same item submitted twice counts once.
	signUp(t, db, user.ID, raid.ID, character.ID, sword.ID, sword.ID, ring.ID)

	_, granted, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to lock raid:", err)
	}
	if granted != 2 {
		t.Errorf("Expected 2 points granted, got %d", granted)
	}

	points, _ := GetPoints(db, character.ID, sword.ID)
	if points != 1 {
		t.Errorf("Expected 1 point despite duplicate reservation, got %d", points)
	}
}

func TestReversalSkipsSpentBalance(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	raid := createTestRaid(t, db, "Naxxramas")

	signup := signUp(t, db, user.ID, raid.ID, character.ID, sword.ID)

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to lock raid:", err)
	}

	// The character wins the item and spends the point.
	previous, err := AwardItem(db, character.ID, sword.ID)
	if err != nil {
		t.Fatal("Failed to award item:", err)
	}
	if previous != 1 {
		t.Errorf("Expected previous balance 1, got %d", previous)
	}

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to reopen raid:", err)
	}

	// Cancelling now reverses against a zero balance: the conditional
	// decrement leaves it at zero instead of going negative.
	if _, err := CancelSignup(db, user.ID, signup.ID); err != nil {
		t.Fatal("Failed to cancel signup:", err)
	}

	points, err := GetPoints(db, character.ID, sword.ID)
	if err != nil {
		t.Fatal("Failed to get points:", err)
	}
	if points != 0 {
		t.Errorf("Expected balance to stay at 0, got %d", points)
	}
}

func TestCancelBeforeSettlementReversesNothing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	raid := createTestRaid(t, db, "Naxxramas")

	signup := signUp(t, db, user.ID, raid.ID, character.ID, sword.ID)

	if _, err := CancelSignup(db, user.ID, signup.ID); err != nil {
		t.Fatal("Failed to cancel signup:", err)
	}

	points, _ := GetPoints(db, character.ID, sword.ID)
	if points != 0 {
		t.Errorf("Expected 0 points, got %d", points)
	}

	// The raid never settled, so locking it now grants nothing for the
	// cancelled signup.
	_, granted, err := ToggleRaidLock(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to lock raid:", err)
	}
	if granted != 0 {
		t.Errorf("Expected no points granted, got %d", granted)
	}
}

func TestDeleteSettledRaidReversesPoints(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	raid := createTestRaid(t, db, "Naxxramas")

	signUp(t, db, user.ID, raid.ID, character.ID, sword.ID)

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to lock raid:", err)
	}

	if _, err := DeleteRaid(db, raid.ID); err != nil {
		t.Fatal("Failed to delete raid:", err)
	}

	points, _ := GetPoints(db, character.ID, sword.ID)
	if points != 0 {
		t.Errorf("Expected points reversed after raid deletion, got %d", points)
	}

	entries, err := GetLedgerOverview(db, "item_name", "asc")
	if err != nil {
		t.Fatal("Failed to get ledger overview:", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty ledger overview, got %d entries", len(entries))
	}
}

func TestAwardItemWithoutLedgerRow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")

	previous, err := AwardItem(db, character.ID, sword.ID)
	if err != nil {
		t.Fatal("Failed to award item:", err)
	}
	if previous != 0 {
		t.Errorf("Expected previous balance 0 without a ledger row, got %d", previous)
	}
}

func TestSetPointsOverwrites(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")

	if err := SetPoints(db, character.ID, sword.ID, 5); err != nil {
		t.Fatal("Failed to set points:", err)
	}
	if err := SetPoints(db, character.ID, sword.ID, 2); err != nil {
		t.Fatal("Failed to set points:", err)
	}

	points, _ := GetPoints(db, character.ID, sword.ID)
	if points != 2 {
		t.Errorf("Expected overwrite to 2, got %d", points)
	}
}

func TestRecountAfterRosterChange(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	other := createTestUser(t, db, "other")
	keeper := createTestCharacter(t, db, user.ID, "Keeper")
	leaver := createTestCharacter(t, db, other.ID, "Leaver")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	raid := createTestRaid(t, db, "Naxxramas")

	signUp(t, db, user.ID, raid.ID, keeper.ID, sword.ID)
	leaverSignup := signUp(t, db, other.ID, raid.ID, leaver.ID, sword.ID)

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to lock raid:", err)
	}

	if _, err := RemoveSignup(db, leaverSignup.ID); err != nil {
		t.Fatal("Failed to remove signup:", err)
	}

	granted, err := RecountRaidPoints(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to recount raid:", err)
	}
	if granted != 1 {
		t.Errorf("Expected 1 point granted on recount, got %d", granted)
	}

	points, _ := GetPoints(db, keeper.ID, sword.ID)
	if points != 1 {
		t.Errorf("Expected keeper to hold 1 point, got %d", points)
	}
	points, _ = GetPoints(db, leaver.ID, sword.ID)
	if points != 0 {
		t.Errorf("Expected leaver to hold 0 points, got %d", points)
	}
}

func TestRecountRequiresSettledRaid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	raid := createTestRaid(t, db, "Naxxramas")

	_, err := RecountRaidPoints(db, raid.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for unsettled raid, got %v", err)
	}
}

func TestGetCharacterPointsOrdersByBalance(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	ring := createTestItem(t, db, "Band of the Fallen", "Naxxramas", "Ring")

	SetPoints(db, character.ID, sword.ID, 2)
	SetPoints(db, character.ID, ring.ID, 5)

	entries, err := GetCharacterPoints(db, character.ID)
	if err != nil {
		t.Fatal("Failed to get character points:", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].ItemName != "Band of the Fallen" || entries[0].Points != 5 {
		t.Errorf("Expected the ring first with 5 points, got %s with %d", entries[0].ItemName, entries[0].Points)
	}
}

func TestLedgerOverviewHidesZeroBalances(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	ring := createTestItem(t, db, "Band of the Fallen", "Naxxramas", "Ring")

	SetPoints(db, character.ID, sword.ID, 3)
	SetPoints(db, character.ID, ring.ID, 0)

	entries, err := GetLedgerOverview(db, "points", "desc")
	if err != nil {
		t.Fatal("Failed to get ledger overview:", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].ItemName != "Ashbringer" {
		t.Errorf("Expected Ashbringer, got %s", entries[0].ItemName)
	}
	if entries[0].CharacterName != "Thorgar" {
		t.Errorf("Expected Thorgar, got %s", entries[0].CharacterName)
	}
}
