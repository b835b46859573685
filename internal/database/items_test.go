package database

import (
	"errors"
	"testing"
)

func TestItemCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	item := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")

	got, err := GetItem(db, item.ID)
	if err != nil {
		t.Fatal("Failed to get item:", err)
	}
	if got.Name != "Ashbringer" || got.SlotType != "Two-Hand" {
		t.Errorf("Unexpected item fields: %+v", got)
	}

	_, err = CreateItem(db, "Ashbringer", "Other Boss", "Karazhan", "Ring")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate name, got %v", err)
	}

	if err := UpdateItem(db, item.ID, "Corrupted Ashbringer", "Test Boss", "Naxxramas", "Two-Hand"); err != nil {
		t.Fatal("Failed to update item:", err)
	}

	deleted, err := DeleteItem(db, item.ID)
	if err != nil {
		t.Fatal("Failed to delete item:", err)
	}
	if deleted.Name != "Corrupted Ashbringer" {
		t.Errorf("Expected updated name on deleted item, got %s", deleted.Name)
	}

	_, err = GetItem(db, item.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after deletion, got %v", err)
	}
}

func TestImportItemsKeepsExistingIDs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	user := createTestUser(t, db, "member")
	character := createTestCharacter(t, db, user.ID, "Thorgar")
	existing := createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")

	// A wishlist reference must survive the re-import.
	AddWishlistItem(db, character.ID, existing.ID, 6)

	count, err := ImportItems(db, []ItemImport{
		{Name: "Ashbringer", BossName: "Kel'Thuzad", RaidInstance: "Naxxramas", SlotType: "Two-Hand"},
		{Name: "Band of the Fallen", BossName: "Patchwerk", RaidInstance: "Naxxramas", SlotType: "Ring"},
	})
	if err != nil {
		t.Fatal("Failed to import items:", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 imported rows, got %d", count)
	}

	updated, err := GetItem(db, existing.ID)
	if err != nil {
		t.Fatal("Failed to get item after import:", err)
	}
	if updated.BossName != "Kel'Thuzad" {
		t.Errorf("Expected boss name updated in place, got %s", updated.BossName)
	}

	entries, err := GetWishlist(db, character.ID)
	if err != nil {
		t.Fatal("Failed to get wishlist:", err)
	}
	if len(entries) != 1 || entries[0].ItemID != existing.ID {
		t.Error("Expected wishlist reference to survive the import")
	}

	items, err := GetAllItems(db)
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 items after import, got %d", len(items))
	}
}

func TestSearchItemsFiltersBySlotType(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestItem(t, db, "Robe of the Archmage", "Naxxramas", "Cloth")
	createTestItem(t, db, "Breastplate of Might", "Naxxramas", "Plate")
	createTestItem(t, db, "Ring of Binding", "Naxxramas", "Ring")

	items, err := SearchItems(db, "o", []string{"Cloth", "Ring"})
	if err != nil {
		t.Fatal("Failed to search items:", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	for _, item := range items {
		if item.SlotType == "Plate" {
			t.Errorf("Plate item %s should be filtered out", item.Name)
		}
	}

	items, err = SearchItems(db, "Robe", []string{"Cloth", "Ring"})
	if err != nil {
		t.Fatal("Failed to search items:", err)
	}
	if len(items) != 1 || items[0].Name != "Robe of the Archmage" {
		t.Errorf("Expected only the robe, got %v", items)
	}

	// No allowed slot types means no results at all.
	items, err = SearchItems(db, "o", nil)
	if err != nil {
		t.Fatal("Failed to search items:", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items without slot types, got %d", len(items))
	}
}

func TestGetItemsByInstance(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestItem(t, db, "Ashbringer", "Naxxramas", "Two-Hand")
	createTestItem(t, db, "Staff of Karazhan", "Karazhan", "Two-Hand")

	items, err := GetItemsByInstance(db, "Naxxramas")
	if err != nil {
		t.Fatal("Failed to get items:", err)
	}
	if len(items) != 1 || items[0].Name != "Ashbringer" {
		t.Errorf("Expected only the Naxxramas item, got %v", items)
	}

	instances, err := GetRaidInstances(db)
	if err != nil {
		t.Fatal("Failed to get instances:", err)
	}
	if len(instances) != 2 {
		t.Errorf("Expected 2 distinct instances, got %v", instances)
	}
}
