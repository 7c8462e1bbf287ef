package model

// Tier is the ordered loyalty rank derived from lifetime points earned.
// Ordering: bronze < silver < gold < platinum.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Lifetime-earned thresholds (inclusive lower bound) per tier
const (
	ThresholdBronze   = 0
	ThresholdSilver   = 1000
	ThresholdGold     = 5000
	ThresholdPlatinum = 15000
)

// tierOrder is the single source of truth for tier comparison.
// Every eligibility check goes through Rank/AtLeast instead of
// re-building ad hoc lookup maps.
var tierOrder = map[Tier]int{
	TierBronze:   0,
	TierSilver:   1,
	TierGold:     2,
	TierPlatinum: 3,
}

func (t Tier) IsValid() bool {
	_, ok := tierOrder[t]
	return ok
}

func (t Tier) String() string {
	return string(t)
}

// Rank returns the tier's position in the ordering; unknown tiers rank below bronze
func (t Tier) Rank() int {
	rank, ok := tierOrder[t]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether t meets or exceeds other
func (t Tier) AtLeast(other Tier) bool {
	return t.Rank() >= other.Rank()
}

// Threshold returns the lifetime-earned points where the tier begins
func (t Tier) Threshold() int {
	switch t {
	case TierSilver:
		return ThresholdSilver
	case TierGold:
		return ThresholdGold
	case TierPlatinum:
		return ThresholdPlatinum
	default:
		return ThresholdBronze
	}
}

// Next returns the following tier and true, or the same tier and false at platinum
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierBronze:
		return TierSilver, true
	case TierSilver:
		return TierGold, true
	case TierGold:
		return TierPlatinum, true
	default:
		return TierPlatinum, false
	}
}

// TierForPoints derives the tier from lifetime points earned.
// Redemptions never lower lifetime earned, so tier is monotonic.
func TierForPoints(lifetimeEarned int) Tier {
	switch {
	case lifetimeEarned >= ThresholdPlatinum:
		return TierPlatinum
	case lifetimeEarned >= ThresholdGold:
		return TierGold
	case lifetimeEarned >= ThresholdSilver:
		return TierSilver
	default:
		return TierBronze
	}
}

// PointsToNextTier computes how many lifetime points remain until the
// next tier, or 0 at platinum.
func PointsToNextTier(lifetimeEarned int) int {
	current := TierForPoints(lifetimeEarned)
	next, ok := current.Next()
	if !ok {
		return 0
	}
	return next.Threshold() - lifetimeEarned
}
