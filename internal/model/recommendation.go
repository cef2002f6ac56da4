package model

import "time"

// Explanation describes how one explicitly stated preference matched
// the recommended phone.
type Explanation struct {
	Attribute    string  `json:"attribute"`
	UserValue    string  `json:"user_value"`
	PhoneValue   string  `json:"phone_value"`
	MatchScore   float64 `json:"match_score"`   // 0-1
	Contribution float64 `json:"contribution"`  // match score × raw percent weight
}

// AttributeContribution decomposes an aggregate similarity score into
// the share each weighted attribute carries.
type AttributeContribution struct {
	Attribute     Attribute `json:"attribute"`
	QueryValue    float64   `json:"query_value"`
	CaseValue     float64   `json:"case_value"`
	Difference    float64   `json:"difference"`
	Similarity    float64   `json:"attribute_similarity"` // linear: 1 - |q-c|
	WeightPercent float64   `json:"weight_percentage"`
	Contribution  float64   `json:"weighted_contribution"` // percentage points
	MatchQuality  string    `json:"match_quality"`
}

// Recommendation is one ranked result of the CBR cycle.
type Recommendation struct {
	Rank         int           `json:"rank"`
	Phone        Phone         `json:"phone"`
	Similarity   float64       `json:"similarity_score"`      // (0,1], possibly boosted
	Percentage   float64       `json:"similarity_percentage"` // capped at 100
	Explanations []Explanation `json:"explanations"`
	Highlights   []string      `json:"match_highlights"`
}

// LLMSummary is an optional narrative rendering of a recommendation
// set. It is decorative: it never influences scores or ranks.
type LLMSummary struct {
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	SummaryMD string   `json:"summary_md,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// RecommendResponse is the full result of one recommendation cycle.
// It is always well-formed: zero matches is data, not an error.
type RecommendResponse struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	TotalResults    int               `json:"total_results"`
	QuerySummary    map[string]string `json:"query_summary"`
	WeightsUsed     Weights           `json:"weights_used"`
	Recommendations []Recommendation  `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
	LLM             *LLMSummary       `json:"llm,omitempty"`
}
