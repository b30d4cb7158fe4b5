// Package points is the scoring engine. Every function here is a pure, total
// function over snapshots of checkbox definitions and daily logs: no storage
// access, no clock reads, no shared state, and no error paths. Missing or
// empty input always degrades to zero totals. Callers fetch the snapshots and
// are responsible for their consistency; in particular, duplicate logs for the
// same (user, date) are a storage-layer invariant and are not deduplicated
// here.
package points

import (
	"github.com/leandrocarocca/habit-circle-demo/backend/models"
)

// DailyCheckboxPoints sums the points of every active daily checkbox that is
// checked in states. Weekly and inactive definitions are ignored, as are
// state keys with no matching definition. A missing key reads as unchecked.
func DailyCheckboxPoints(states map[string]bool, defs []models.CheckboxDefinition) int {
	total := 0
	for _, def := range defs {
		if def.Kind != models.KindDaily || !def.IsActive {
			continue
		}
		if states[def.Name] {
			total += def.Points
		}
	}
	return total
}
