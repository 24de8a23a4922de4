package orders

import "storefront/internal/models"

const (
	shillingsPerXP = 100
	xpPerLevel     = 1000
)

type Rank struct {
	Name     string `json:"name"`
	MinLevel int    `json:"min_level"`
}

var ranks = []Rank{
	{Name: "Recruit", MinLevel: 1},
	{Name: "Operative", MinLevel: 5},
	{Name: "Specialist", MinLevel: 15},
	{Name: "Veteran", MinLevel: 30},
	{Name: "Commander", MinLevel: 45},
	{Name: "Legend", MinLevel: 60},
}

// XPForTotal is 1 XP per KSh 100 spent, rounded down.
func XPForTotal(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return total / shillingsPerXP
}

func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/xpPerLevel) + 1
}

func RankForLevel(level int) Rank {
	current := ranks[0]
	for _, r := range ranks {
		if level >= r.MinLevel {
			current = r
		}
	}
	return current
}

// NextRank returns the rank after the one held at level, if any.
func NextRank(level int) (Rank, bool) {
	for _, r := range ranks {
		if r.MinLevel > level {
			return r, true
		}
	}
	return Rank{}, false
}

// ProfileSummary is the rewards view of a profile.
type ProfileSummary struct {
	models.Profile
	Level          int   `json:"level"`
	Rank           Rank  `json:"rank"`
	NextRank       *Rank `json:"next_rank,omitempty"`
	XPToNextLevel  int64 `json:"xp_to_next_level"`
	CompletedCount int   `json:"completed_orders"`
}

func Summarize(p models.Profile, orderCount int) ProfileSummary {
	level := LevelForXP(p.XP)
	s := ProfileSummary{
		Profile:        p,
		Level:          level,
		Rank:           RankForLevel(level),
		XPToNextLevel:  int64(level)*xpPerLevel - p.XP,
		CompletedCount: orderCount,
	}
	if next, ok := NextRank(level); ok {
		s.NextRank = &next
	}
	return s
}
