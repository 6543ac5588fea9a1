package wizard

import "github.com/harrylevesque/convoportal/internal/models"

// Options returns the catalog plans a change in the given direction can move
// to: strictly more expensive for upgrades, strictly cheaper for downgrades.
// Catalog order is preserved.
func Options(current models.Plan, catalog []models.Plan, action Action) []models.Plan {
	var out []models.Plan
	for _, p := range catalog {
		switch {
		case action == ActionUpgrade && p.Price > current.Price:
			out = append(out, p)
		case action == ActionDowngrade && p.Price < current.Price:
			out = append(out, p)
		}
	}
	return out
}

// FindPlan looks a plan up by ID.
func FindPlan(plans []models.Plan, id string) (models.Plan, bool) {
	if id == "" {
		return models.Plan{}, false
	}
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}
