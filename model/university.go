package model

// Tier categories for a candidate university relative to a profile.
const (
	CategoryDream  = "dream"
	CategoryTarget = "target"
	CategorySafe   = "safe"
)

// Three-point scale used for cost level and acceptance chance.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// University is a candidate record from the external directory. It is
// fetched per request and never persisted on its own.
type University struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	AlphaTwoCode  string   `json:"alpha_two_code"`
	Domains       []string `json:"domains"`
	WebPages      []string `json:"web_pages"`
	StateProvince string   `json:"state_province,omitempty"`
}

// ClassificationResult is the per-candidate output of the classification
// engine. Degraded marks results produced by the fallback heuristic after
// retry exhaustion instead of the AI service.
type ClassificationResult struct {
	University       University `json:"university"`
	Category         string     `json:"category"`
	FitReasons       []string   `json:"fit_reasons"`
	Risks            []string   `json:"risks"`
	CostLevel        string     `json:"cost_level"`
	AcceptanceChance string     `json:"acceptance_chance"`
	Degraded         bool       `json:"degraded"`
}

// RecommendationTiers partitions classified candidates into the three tiers.
type RecommendationTiers struct {
	Dream  []ClassificationResult `json:"dream"`
	Target []ClassificationResult `json:"target"`
	Safe   []ClassificationResult `json:"safe"`
}

// ValidCategory reports whether s is one of the three tier names.
func ValidCategory(s string) bool {
	return s == CategoryDream || s == CategoryTarget || s == CategorySafe
}

// ValidLevel reports whether s is on the low/medium/high scale.
func ValidLevel(s string) bool {
	return s == LevelLow || s == LevelMedium || s == LevelHigh
}
