package compat

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gridstack/internal/models"
)

const (
	// PointsPerMatch is awarded for each shared chain or asset.
	PointsPerMatch = 10
	// DimensionCap bounds the chain and the asset sub-score independently.
	DimensionCap = 30
	// MaxPairScore is the highest score a single pair can reach.
	MaxPairScore = 2 * DimensionCap

	// PairCompatibleThreshold is the minimum pair score flagged compatible.
	PairCompatibleThreshold = 30

	// CompatibleThreshold and PartialThreshold split aggregate stack scores
	// into tiers.
	CompatibleThreshold = 30
	PartialThreshold    = 10
)

// PairwiseScore compares two products. The pair id and the order of the
// evidence follow the argument order; score and flag do not depend on it.
func PairwiseScore(a, b models.Product) models.CompatibilityResult {
	chainsA, chainsB := newOrderedSet(a.ChainIDs()), newOrderedSet(b.ChainIDs())
	sharedChains := chainsA.intersect(chainsB)
	chainScore := dimensionScore(len(sharedChains))

	assetsA, assetsB := newOrderedSet(a.AssetIDs()), newOrderedSet(b.AssetIDs())
	sharedAssets := assetsA.intersect(assetsB)
	assetScore := dimensionScore(len(sharedAssets))

	score := chainScore + assetScore

	reasons := make([]string, 0, 2)
	if len(sharedChains) > 0 {
		reasons = append(reasons, fmt.Sprintf("Shares %d chain(s)", len(sharedChains)))
	}
	if len(sharedAssets) > 0 {
		reasons = append(reasons, fmt.Sprintf("Supports %d common asset(s)", len(sharedAssets)))
	}

	return models.CompatibilityResult{
		PairID:       PairID(a, b),
		Score:        score,
		Compatible:   score >= PairCompatibleThreshold,
		Reasons:      reasons,
		SharedChains: sharedChains,
		SharedAssets: sharedAssets,
	}
}

// PairID joins two product ids in argument order.
func PairID(a, b models.Product) string {
	return a.ID + "-" + b.ID
}

// PairLabel renders a pair id as "NameA + NameB" using names keyed by
// product id. Ids may themselves contain dashes, so the split point is the
// one that leaves two known ids; when several do, the shortest first id wins.
// Unknown pairs come back unchanged.
func PairLabel(pairID string, names map[string]string) string {
	ids := make([]string, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		rest, ok := strings.CutPrefix(pairID, id+"-")
		if !ok {
			continue
		}
		if other, known := names[rest]; known {
			return names[id] + " + " + other
		}
	}
	return pairID
}

func dimensionScore(shared int) int {
	return min(DimensionCap, PointsPerMatch*shared)
}

// Calculate scores every unordered pair of products exactly once, i < j in
// the given order. Fewer than two products yield an empty slice.
func Calculate(products []models.Product) []models.CompatibilityResult {
	n := len(products)
	if n < 2 {
		return []models.CompatibilityResult{}
	}
	results := make([]models.CompatibilityResult, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			results = append(results, PairwiseScore(products[i], products[j]))
		}
	}
	return results
}

// StackScore is the mean pair score rounded half up. ok is false when there
// are no pairs to average.
func StackScore(results []models.CompatibilityResult) (score int, ok bool) {
	if len(results) == 0 {
		return 0, false
	}
	total := 0
	for _, r := range results {
		total += r.Score
	}
	mean := float64(total) / float64(len(results))
	return int(math.Floor(mean + 0.5)), true
}

// Classify maps an aggregate stack score to its tier.
func Classify(score int) models.Tier {
	switch {
	case score >= CompatibleThreshold:
		return models.TierCompatible
	case score >= PartialThreshold:
		return models.TierPartial
	default:
		return models.TierIncompatible
	}
}

// Report bundles pair results with their aggregate score and tier.
func Report(results []models.CompatibilityResult) models.StackReport {
	report := models.StackReport{Pairs: results}
	if report.Pairs == nil {
		report.Pairs = []models.CompatibilityResult{}
	}
	if score, ok := StackScore(results); ok {
		report.StackScore = score
		report.Tier = Classify(score)
	}
	return report
}
