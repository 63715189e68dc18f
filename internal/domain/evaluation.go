package domain

// ValueType categorises why a lead matters to the consuming team.
type ValueType string

const (
	ValueFundingRound         ValueType = "funding_round"
	ValueFinancialHealth      ValueType = "financial_health"
	ValueMergerAcquisition    ValueType = "merger_acquisition"
	ValueStrategicPartnership ValueType = "strategic_partnership"
	ValueHiringTrends         ValueType = "hiring_trends"
	ValueLeadershipChange     ValueType = "leadership_change"
	ValueMarketExpansion      ValueType = "market_expansion"
	ValueProductLaunch        ValueType = "product_launch"
	ValueIndustryTrend        ValueType = "industry_trend"
	ValueCompetitiveInsight   ValueType = "competitive_insight"
	ValuePublicSentiment      ValueType = "public_sentiment"
	ValueDigitalPresence      ValueType = "digital_presence"
	ValueAwardRecognition     ValueType = "award_recognition"
	ValueChallengeOpportunity ValueType = "challenge_opportunity"
	ValueNone                 ValueType = "none"
)

// ValueTypesVersion identifies the revision of the closed value-type enumeration.
const ValueTypesVersion = 1

// AllValueTypes lists the enumeration in declaration order.
func AllValueTypes() []ValueType {
	return []ValueType{
		ValueFundingRound,
		ValueFinancialHealth,
		ValueMergerAcquisition,
		ValueStrategicPartnership,
		ValueHiringTrends,
		ValueLeadershipChange,
		ValueMarketExpansion,
		ValueProductLaunch,
		ValueIndustryTrend,
		ValueCompetitiveInsight,
		ValuePublicSentiment,
		ValueDigitalPresence,
		ValueAwardRecognition,
		ValueChallengeOpportunity,
		ValueNone,
	}
}

// Valid reports whether v belongs to the enumeration.
func (v ValueType) Valid() bool {
	for _, known := range AllValueTypes() {
		if v == known {
			return true
		}
	}
	return false
}

// OnlyNone reports whether types is exactly the "none" sentinel.
func OnlyNone(types []ValueType) bool {
	return len(types) == 1 && types[0] == ValueNone
}

// RelevanceResult is the output of the relevance evaluator.
type RelevanceResult struct {
	IsRelevant  bool   `json:"is_relevant"`
	Score       int    `json:"relevance_score"`
	Explanation string `json:"explanation"`
}

// Passes applies a caller-chosen threshold.
func (r RelevanceResult) Passes(threshold int) bool {
	return r.IsRelevant && r.Score >= threshold
}

// ValueResult is the output of the value evaluator.
type ValueResult struct {
	IsValuable  bool        `json:"is_valuable"`
	ValueTypes  []ValueType `json:"value_type"`
	ActionItems []string    `json:"action_items"`
	Explanation string      `json:"explanation"`
}

// DuplicateCheck names the detector stage that matched.
type DuplicateCheck string

const (
	CheckURL      DuplicateCheck = "url"
	CheckSemantic DuplicateCheck = "semantic"
	CheckPending  DuplicateCheck = "pending"
)

// DuplicateVerdict describes the outcome of duplicate detection.
type DuplicateVerdict struct {
	IsDuplicate     bool
	Check           DuplicateCheck
	MatchingID      string
	SimilarityScore float32
}

// Match is a nearest-neighbour hit from the vector index.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Outcome is the state of a lead after a pipeline pass. OutcomePending is the only non-terminal one.
type Outcome string

const (
	OutcomePending      Outcome = "pending"
	OutcomeCommitted    Outcome = "committed"
	OutcomeIrrelevant   Outcome = "irrelevant"
	OutcomeNotValuable  Outcome = "not_valuable"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeCommitFailed Outcome = "commit_failed"
	OutcomeRejected     Outcome = "rejected"
)
