package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"storefront/internal/models"
)

const maxPicks = 3

// StaticAdvisor answers from the inventory alone. Used when no model is configured.
type StaticAdvisor struct{}

func (StaticAdvisor) Advice(_ context.Context, userText string, products []models.Product) string {
	if len(products) == 0 {
		return "[STATUS] Grid inventory offline.\n[COMMAND_DECISION] Stand by, Commander."
	}

	picks := rankProducts(userText, products)

	var b strings.Builder
	b.WriteString("[STATUS] Offline tactical mode. Running local inventory scan.\n")
	b.WriteString("[INTEL]\n")
	for _, p := range picks {
		fmt.Fprintf(&b, "- %s (%s) rated %.1f\n", p.Name, FormatKSh(p.Price), p.Rating)
	}
	fmt.Fprintf(&b, "[COMMAND_DECISION] Deploy the %s for the strongest Performance Buff.", picks[0].Name)
	return b.String()
}

// rankProducts prefers products matching any word of the query, then higher ratings.
func rankProducts(query string, products []models.Product) []models.Product {
	words := strings.Fields(strings.ToLower(query))

	type scored struct {
		p     models.Product
		score int
	}
	all := make([]scored, 0, len(products))
	for _, p := range products {
		haystack := strings.ToLower(p.Name + " " + string(p.Category) + " " + p.Description)
		s := 0
		for _, w := range words {
			if len(w) > 2 && strings.Contains(haystack, w) {
				s++
			}
		}
		all = append(all, scored{p: p, score: s})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].p.Rating > all[j].p.Rating
	})

	n := maxPicks
	if len(all) < n {
		n = len(all)
	}
	out := make([]models.Product, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].p
	}
	return out
}
