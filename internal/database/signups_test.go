package database

import (
	"errors"
	"testing"
)

func TestSignupRequiresOpenRaid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	raid := createTestRaid(t, db, "Naxxramas")

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to lock raid:", err)
	}

	_, err := CreateSignup(db, user.ID, raid.ID, character.ID, "DPS", nil, false, 0)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for locked raid, got %v", err)
	}
}

func TestDuplicateSignupRejected(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	raid := createTestRaid(t, db, "Naxxramas")

	signUp(t, db, user.ID, raid.ID, character.ID)

	_, err := CreateSignup(db, user.ID, raid.ID, character.ID, "Tank", nil, false, 0)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate signup, got %v", err)
	}

	// The guild can opt into duplicate signups.
	_, err = CreateSignup(db, user.ID, raid.ID, character.ID, "Tank", nil, true, 0)
	if err != nil {
		t.Errorf("Expected duplicate signup to succeed when allowed, got %v", err)
	}
}

func TestSignupWithSomeoneElsesCharacter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	character := createTestCharacter(t, db, owner.ID, "Thorgar")
	raid := createTestRaid(t, db, "Naxxramas")

	_, err := CreateSignup(db, other.ID, raid.ID, character.ID, "DPS", nil, false, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign character, got %v", err)
	}
}

func TestReservationCap(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	raid := createTestRaid(t, db, "Naxxramas")
	a := createTestItem(t, db, "Item A", "Naxxramas", "Ring")
	b := createTestItem(t, db, "Item B", "Naxxramas", "Ring")
	c := createTestItem(t, db, "Item C", "Naxxramas", "Ring")

	_, err := CreateSignup(db, user.ID, raid.ID, character.ID, "DPS", []int{a.ID, b.ID, c.ID}, false, 2)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for too many reservations, got %v", err)
	}

	// Duplicates collapse before the cap applies.
	signup, err := CreateSignup(db, user.ID, raid.ID, character.ID, "DPS", []int{a.ID, a.ID, b.ID}, false, 2)
	if err != nil {
		t.Fatal("Expected deduplicated reservations to fit the cap:", err)
	}

	reservations, err := GetSignupReservations(db, signup.ID, character.ID)
	if err != nil {
		t.Fatal("Failed to get reservations:", err)
	}
	if len(reservations) != 2 {
		t.Errorf("Expected 2 reservations, got %d", len(reservations))
	}
}

func TestCancelSignupOwnershipAndStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	character := createTestCharacter(t, db, owner.ID, "Thorgar")
	raid := createTestRaid(t, db, "Naxxramas")

	signup := signUp(t, db, owner.ID, raid.ID, character.ID)

	_, err := CancelSignup(db, other.ID, signup.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound cancelling someone else's signup, got %v", err)
	}

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to lock raid:", err)
	}

	_, err = CancelSignup(db, owner.ID, signup.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition cancelling on a locked raid, got %v", err)
	}

	if _, _, err := ToggleRaidLock(db, raid.ID); err != nil {
		t.Fatal("Failed to reopen raid:", err)
	}

	cancelled, err := CancelSignup(db, owner.ID, signup.ID)
	if err != nil {
		t.Fatal("Failed to cancel signup:", err)
	}
	if cancelled.ID != signup.ID {
		t.Errorf("Expected cancelled signup %d, got %d", signup.ID, cancelled.ID)
	}

	signups, err := GetUserSignups(db, owner.ID)
	if err != nil {
		t.Fatal("Failed to get signups:", err)
	}
	if len(signups) != 0 {
		t.Errorf("Expected no signups after cancellation, got %d", len(signups))
	}
}

func TestRemoveSignupReversesSettledPoints(t *testing.T) {
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

	removed, err := RemoveSignup(db, signup.ID)
	if err != nil {
		t.Fatal("Failed to remove signup:", err)
	}
	if removed.CharacterName != "Thorgar" {
		t.Errorf("Expected character name Thorgar, got %s", removed.CharacterName)
	}

	points, _ := GetPoints(db, character.ID, sword.ID)
	if points != 0 {
		t.Errorf("Expected points reversed after removal, got %d", points)
	}
}

func TestGetUserSignupsSkipsCompletedRaids(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	active := createTestRaid(t, db, "Naxxramas")
	done := createTestRaid(t, db, "Karazhan")

	signUp(t, db, user.ID, active.ID, character.ID)
	signUp(t, db, user.ID, done.ID, character.ID)

	if _, err := CompleteRaid(db, done.ID); err != nil {
		t.Fatal("Failed to complete raid:", err)
	}

	signups, err := GetUserSignups(db, user.ID)
	if err != nil {
		t.Fatal("Failed to get signups:", err)
	}
	if len(signups) != 1 {
		t.Fatalf("Expected 1 signup, got %d", len(signups))
	}
	if signups[0].RaidID != active.ID {
		t.Errorf("Expected signup on the active raid, got raid %d", signups[0].RaidID)
	}
	if signups[0].Raid == nil || signups[0].Raid.RaidInstance != "Naxxramas" {
		t.Error("Expected the signup to carry its raid")
	}
}

func TestGetSignupReservationsShowsBalances(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	sword := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	raid := createTestRaid(t, db, "Naxxramas")

	signup := signUp(t, db, user.ID, raid.ID, character.ID, sword.ID)

	reservations, err := GetSignupReservations(db, signup.ID, character.ID)
	if err != nil {
		t.Fatal("Failed to get reservations:", err)
	}
	if len(reservations) != 1 {
		t.Fatalf("Expected 1 reservation, got %d", len(reservations))
	}
	if reservations[0].Points != 0 {
		t.Errorf("Expected 0 points before settlement, got %d", reservations[0].Points)
	}

	SetPoints(db, character.ID, sword.ID, 3)

	reservations, _ = GetSignupReservations(db, signup.ID, character.ID)
	if reservations[0].Points != 3 {
		t.Errorf("Expected 3 points after adjustment, got %d", reservations[0].Points)
	}
}

func TestGetRaidParticipantEmails(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	mailed := createTestUser(t, db, "mailed")
	unmailed, err := CreateUser(db, "unmailed", "", "password123")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	first := createTestCharacter(t, db, mailed.ID, "First")
	second := createTestCharacter(t, db, unmailed.ID, "Second")
	raid := createTestRaid(t, db, "Naxxramas")

	signUp(t, db, mailed.ID, raid.ID, first.ID)
	signUp(t, db, unmailed.ID, raid.ID, second.ID)

	emails, err := GetRaidParticipantEmails(db, raid.ID)
	if err != nil {
		t.Fatal("Failed to get participant emails:", err)
	}
	if len(emails) != 1 || emails[0] != "mailed@example.com" {
		t.Errorf("Expected only the mailed user's address, got %v", emails)
	}
}
