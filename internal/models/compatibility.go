package models

// CompatibilityResult is the score of one unordered product pair.
type CompatibilityResult struct {
	PairID       string   `json:"productId"`
	Score        int      `json:"score"`
	Compatible   bool     `json:"compatible"`
	Reasons      []string `json:"reasons"`
	SharedChains []string `json:"sharedChains"`
	SharedAssets []string `json:"sharedAssets"`
}

// Tier classifies an aggregate stack score.
type Tier string

const (
	TierCompatible   Tier = "compatible"
	TierPartial      Tier = "partial"
	TierIncompatible Tier = "incompatible"
)

// StackReport is the full compatibility picture of a stack. StackScore and
// Tier are only meaningful when Pairs is non-empty.
type StackReport struct {
	Pairs      []CompatibilityResult `json:"pairs"`
	StackScore int                   `json:"stackScore"`
	Tier       Tier                  `json:"tier,omitempty"`
}
