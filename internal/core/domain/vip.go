package domain

// VipLevelNone is the level of an account with no active membership.
const VipLevelNone = "none"

// RankedLevel is a catalog entry projected to its name and catalog rank.
type RankedLevel struct {
	Name string
	Rank int
}

// HighestVipLevel derives the membership level from the currently active
// memberships: the highest-ranked product wins, regardless of purchase order.
// An empty set falls back to VipLevelNone.
func HighestVipLevel(active []RankedLevel) string {
	level := VipLevelNone
	best := 0
	for _, l := range active {
		if l.Rank > best {
			best = l.Rank
			level = l.Name
		}
	}
	return level
}
