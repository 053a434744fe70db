package catalog

// Rarity is the localized rarity tier of a catalog entry. Tiers are derived
// from the entry's base score, never stored in the dataset.
type Rarity string

const (
	RarityCommon       Rarity = "常见"
	RarityFairlyCommon Rarity = "较常见"
	RarityUncommon     Rarity = "较少见"
	RarityRare         Rarity = "少见"
	RarityEpic         Rarity = "罕见"
	RarityLegendary    Rarity = "极罕见"
)

// Score bands are contiguous and exhaustive over the non-negative integers:
// every base score maps to exactly one tier.
const (
	fairlyCommonMin = 15
	uncommonMin     = 20
	rareMin         = 25
	epicMin         = 40
	legendaryMin    = 55
)

// TierForScore maps a base score to its rarity tier (inclusive lower bounds).
func TierForScore(score int) Rarity {
	switch {
	case score >= legendaryMin:
		return RarityLegendary
	case score >= epicMin:
		return RarityEpic
	case score >= rareMin:
		return RarityRare
	case score >= uncommonMin:
		return RarityUncommon
	case score >= fairlyCommonMin:
		return RarityFairlyCommon
	default:
		return RarityCommon
	}
}

// unlockCosts is the fixed per-tier price of buying a card's hint.
var unlockCosts = map[Rarity]int{
	RarityCommon:       10,
	RarityFairlyCommon: 20,
	RarityUncommon:     40,
	RarityRare:         80,
	RarityEpic:         150,
	RarityLegendary:    300,
}

// UnlockCost returns the point price for unlocking a card of the given tier.
func UnlockCost(r Rarity) int {
	return unlockCosts[r]
}

// StarLevel describes the display label attached to a lit count.
type StarLevel struct {
	Count int
	Label string
}

// StarLevels maps lit counts to collection mastery labels, capped at 5.
var StarLevels = []StarLevel{
	{Count: 1, Label: "初见"},
	{Count: 2, Label: "熟悉"},
	{Count: 3, Label: "了解"},
	{Count: 4, Label: "精通"},
	{Count: 5, Label: "专家"},
}

// StarLabel returns the mastery label for a lit count (0 → empty string).
func StarLabel(litCount int) string {
	label := ""
	for _, lv := range StarLevels {
		if litCount >= lv.Count {
			label = lv.Label
		}
	}
	return label
}
