package eligibility

import "testing"

func testClassMap() map[string][]string {
	return map[string][]string{
		"Cloth":   {"Mage", "Warlock", "Priest"},
		"Leather": {"Rogue", "Druid"},
		"Plate":   {"Warrior", "Paladin"},
	}
}

func contains(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func TestAllowedSlotTypesForClass(t *testing.T) {
	filter := NewFilter(testClassMap())

	allowed := filter.AllowedSlotTypes("Mage")

	if !contains(allowed, "Cloth") {
		t.Error("Expected Mage to reserve Cloth")
	}
	if contains(allowed, "Plate") {
		t.Error("Expected Mage not to reserve Plate")
	}
	if !contains(allowed, "Trinket") || !contains(allowed, "Ring") || !contains(allowed, "Two-Hand") {
		t.Error("Expected universal slot types for every class")
	}
}

func TestAllowedSlotTypesForUnknownClass(t *testing.T) {
	filter := NewFilter(testClassMap())

	allowed := filter.AllowedSlotTypes("Necromancer")

	if contains(allowed, "Cloth") || contains(allowed, "Leather") || contains(allowed, "Plate") {
		t.Error("Expected an unknown class to get only universal slot types")
	}
	if !contains(allowed, "Mount") {
		t.Error("Expected universal slot types for an unknown class")
	}
}

func TestEmptyClassGetsEverything(t *testing.T) {
	filter := NewFilter(testClassMap())

	allowed := filter.AllowedSlotTypes("")

	for _, want := range []string{"Cloth", "Leather", "Plate", "Trinket", "Misc"} {
		if !contains(allowed, want) {
			t.Errorf("Expected %s for the empty class", want)
		}
	}
}

func TestRestrictedTypesAreSorted(t *testing.T) {
	filter := NewFilter(testClassMap())

	first := filter.AllowedSlotTypes("")
	second := filter.AllowedSlotTypes("")

	if len(first) != len(second) {
		t.Fatalf("Expected stable output, got %d and %d types", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Expected stable order at index %d: %s vs %s", i, first[i], second[i])
		}
	}
}
