package catalog

import "strings"

// Role is the playing role of an auctionable item
type Role string

const (
	RoleBatter       Role = "BAT"
	RoleBowler       Role = "BOWL"
	RoleAllRounder   Role = "AR"
	RoleWicketKeeper Role = "WK"
)

// Roles lists every role in the order progress counters are reported.
var Roles = []Role{RoleWicketKeeper, RoleBatter, RoleBowler, RoleAllRounder}

// Category is the price tier of an item.
type Category string

const (
	CategoryMarquee  Category = "MARQUEE"
	CategoryCapped   Category = "CAPPED"
	CategoryUncapped Category = "UNCAPPED"
)

// Tier is the auction priority grouping. Premium items are auctioned first.
type Tier string

const (
	TierPremium  Tier = "PREMIUM"
	TierStandard Tier = "STANDARD"
)

// Item is one immutable catalog entry.
type Item struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Role      Role     `json:"role" yaml:"role"`
	Category  Category `json:"category" yaml:"category"`
	BasePrice float64  `json:"basePrice" yaml:"base_price"`
	Rating    float64  `json:"rating" yaml:"rating"`
	Tier      Tier     `json:"tier" yaml:"-"`
}

// ParseRole maps a free-form specialism such as "Bowling Allrounder" or
// "WICKETKEEPER" onto a Role. Unknown values fall back to RoleBatter.
func ParseRole(specialism string) Role {
	s := strings.ToUpper(specialism)
	switch {
	case strings.Contains(s, "BOWL"):
		return RoleBowler
	case strings.Contains(s, "AR"), strings.Contains(s, "ALL-ROUNDER"), strings.Contains(s, "ALLROUNDER"):
		return RoleAllRounder
	case strings.Contains(s, "WICKET"), strings.Contains(s, "WK"):
		return RoleWicketKeeper
	default:
		return RoleBatter
	}
}

// CategoryForRating derives the price tier from a rating.
func CategoryForRating(rating float64) Category {
	switch {
	case rating >= 9:
		return CategoryMarquee
	case rating >= 7:
		return CategoryCapped
	default:
		return CategoryUncapped
	}
}
