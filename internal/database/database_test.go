package database

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"lootledger/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const testSessionDuration = 24 * time.Hour

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}

	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}

	return db
}

func createTestUser(t *testing.T, db *sql.DB, username string) *models.User {
	user, err := CreateUser(db, username, username+"@example.com", "password123")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}
	return user
}

func createTestCharacter(t *testing.T, db *sql.DB, userID int, name string) *models.Character {
	character, err := CreateCharacter(db, userID, name, "Warrior", "Tank,DPS")
	if err != nil {
		t.Fatal("Failed to create character:", err)
	}
	return character
}

func createTestItem(t *testing.T, db *sql.DB, name, raidInstance, slotType string) *models.Item {
	item, err := CreateItem(db, name, "Test Boss", raidInstance, slotType)
	if err != nil {
		t.Fatal("Failed to create item:", err)
	}
	return item
}

func createTestRaid(t *testing.T, db *sql.DB, raidInstance string) *models.Raid {
	raid, err := CreateRaid(db, raidInstance, "Weekly "+raidInstance, "2026-09-05", "20:00")
	if err != nil {
		t.Fatal("Failed to create raid:", err)
	}
	return raid
}

func signUp(t *testing.T, db *sql.DB, userID, raidID, characterID int, itemIDs ...int) *models.Signup {
	signup, err := CreateSignup(db, userID, raidID, characterID, "DPS", itemIDs, false, 0)
	if err != nil {
		t.Fatal("Failed to create signup:", err)
	}
	return signup
}

func TestUserCreationAndAuthentication(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := CreateUser(db, "guildmaster", "gm@example.com", "password123")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	if first.Role != models.RoleAdmin {
		t.Errorf("Expected first user to be admin, got %s", first.Role)
	}

	second, err := CreateUser(db, "member", "", "password123")
	if err != nil {
		t.Fatal("Failed to create second user:", err)
	}

	if second.Role != models.RoleMember {
		t.Errorf("Expected second user to be member, got %s", second.Role)
	}

	authUser, err := AuthenticateUser(db, "guildmaster", "password123")
	if err != nil {
		t.Fatal("Failed to authenticate user:", err)
	}

	if authUser.ID != first.ID {
		t.Errorf("Expected user ID %d, got %d", first.ID, authUser.ID)
	}

	_, err = AuthenticateUser(db, "guildmaster", "wrongpassword")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for wrong password, got %v", err)
	}

	_, err = AuthenticateUser(db, "nobody", "password123")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}

	_, err = CreateUser(db, "guildmaster", "", "password123")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate username, got %v", err)
	}
}

func TestUserEmailIsOptional(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	withEmail := createTestUser(t, db, "mailed")
	noEmail, err := CreateUser(db, "unmailed", "", "password123")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	email, err := GetUserEmail(db, withEmail.ID)
	if err != nil {
		t.Fatal("Failed to get user email:", err)
	}
	if email != "mailed@example.com" {
		t.Errorf("Expected email 'mailed@example.com', got %s", email)
	}

	email, err = GetUserEmail(db, noEmail.ID)
	if err != nil {
		t.Fatal("Failed to get user email:", err)
	}
	if email != "" {
		t.Errorf("Expected empty email, got %s", email)
	}
}

func TestSessionManagement(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "testuser")

	session, err := CreateSession(db, user.ID, testSessionDuration)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}

	if len(session.ID) == 0 {
		t.Error("Session ID should not be empty")
	}

	validatedUser, err := ValidateSession(db, session.ID, testSessionDuration)
	if err != nil {
		t.Fatal("Failed to validate session:", err)
	}

	if validatedUser.ID != user.ID {
		t.Errorf("Expected user ID %d, got %d", user.ID, validatedUser.ID)
	}

	err = DeleteSession(db, session.ID)
	if err != nil {
		t.Fatal("Failed to delete session:", err)
	}

	_, err = ValidateSession(db, session.ID, testSessionDuration)
	if err == nil {
		t.Error("Expected session validation to fail after deletion")
	}
}

func TestCSRFTokenIsSingleUse(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "testuser")

	token, err := CreateCSRFToken(db, user.ID)
	if err != nil {
		t.Fatal("Failed to create CSRF token:", err)
	}

	if err := ValidateCSRFToken(db, token.Token, user.ID); err != nil {
		t.Fatal("Failed to validate CSRF token:", err)
	}

	if err := ValidateCSRFToken(db, token.Token, user.ID); err == nil {
		t.Error("Expected second validation of the same token to fail")
	}
}

func TestCharacterOwnership(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")

	character := createTestCharacter(t, db, owner.ID, "Thorgar")

	got, err := GetCharacter(db, owner.ID, character.ID)
	if err != nil {
		t.Fatal("Failed to get character:", err)
	}
	if got.Name != "Thorgar" {
		t.Errorf("Expected character name 'Thorgar', got %s", got.Name)
	}

	_, err = GetCharacter(db, other.ID, character.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for someone else's character, got %v", err)
	}

	owned, err := CharacterOwnedBy(db, character.ID, owner.ID)
	if err != nil {
		t.Fatal("Failed to check ownership:", err)
	}
	if !owned {
		t.Error("Expected character to be owned by its creator")
	}

	owned, err = CharacterOwnedBy(db, character.ID, other.ID)
	if err != nil {
		t.Fatal("Failed to check ownership:", err)
	}
	if owned {
		t.Error("Expected character not to be owned by another user")
	}

	_, err = CreateCharacter(db, other.ID, "Thorgar", "Mage", "DPS")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate character name, got %v", err)
	}
}

func TestDeleteUserCascadesToCharacters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "admin")
	member := createTestUser(t, db, "member")
	createTestCharacter(t, db, member.ID, "Doomed")

	deleted, err := DeleteUser(db, member.ID)
	if err != nil {
		t.Fatal("Failed to delete user:", err)
	}
	if deleted.Username != "member" {
		t.Errorf("Expected deleted user 'member', got %s", deleted.Username)
	}

	characters, err := GetAllCharacters(db)
	if err != nil {
		t.Fatal("Failed to list characters:", err)
	}
	if len(characters) != 0 {
		t.Errorf("Expected no characters after user deletion, got %d", len(characters))
	}
}

func TestSetUserRole(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestUser(t, db, "admin")
	member := createTestUser(t, db, "member")

	promoted, err := SetUserRole(db, member.ID, models.RoleAdmin)
	if err != nil {
		t.Fatal("Failed to promote user:", err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Errorf("Expected role admin, got %s", promoted.Role)
	}

	_, err = SetUserRole(db, 9999, models.RoleMember)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown user, got %v", err)
	}
}
