// Package eligibility decides which item slot types a character class
// may reserve, used to narrow the item search.
package eligibility

import "sort"

// universalSlotTypes are open to every class regardless of armor
// proficiency.
var universalSlotTypes = []string{
	"Mount",
	"Trinket",
	"Ring",
	"Neck",
	"Cloak",
	"One-Hand",
	"Two-Hand",
	"Off-Hand",
	"Quest",
	"Recipe",
	"Misc",
}

// Filter computes allowed slot types from a configured map of slot
// type to eligible classes. It is immutable after construction.
type Filter struct {
	classMap map[string][]string
}

func NewFilter(classMap map[string][]string) *Filter {
	return &Filter{classMap: classMap}
}

// AllowedSlotTypes returns every universal slot type plus each
// configured slot type whose class list contains the given class. An
// empty class returns everything.
func (f *Filter) AllowedSlotTypes(class string) []string {
	allowed := make([]string, len(universalSlotTypes))
	copy(allowed, universalSlotTypes)

	var restricted []string
	for slotType, classes := range f.classMap {
		if class == "" {
			restricted = append(restricted, slotType)
			continue
		}
		for _, c := range classes {
			if c == class {
				restricted = append(restricted, slotType)
				break
			}
		}
	}

	// Map iteration order is random; keep the output stable.
	sort.Strings(restricted)

	return append(allowed, restricted...)
}
