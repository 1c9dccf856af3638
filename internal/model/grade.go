package model

// CoinIdentity identifies a graded coin.
type CoinIdentity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  string `json:"image,omitempty"`
}

// GradeSummary is the aggregate letter grade. Score is formatted with two
// decimals to match the published scorecard.
type GradeSummary struct {
	Final    string `json:"final"`
	Score    string `json:"score"`
	MaxScore string `json:"maxScore"`
}

// BreakdownItem is one weighted category of the scorecard.
type BreakdownItem struct {
	Grade  string  `json:"grade"`
	Value  string  `json:"value"`
	Reason string  `json:"reason"`
	Weight string  `json:"weight"`
	Score  float64 `json:"score"`
}

// GradeMetrics are the display-formatted market metrics behind a grade.
type GradeMetrics struct {
	CurrentPrice      float64 `json:"currentPrice"`
	MarketCap         string  `json:"marketCap"`
	Volume24h         string  `json:"volume24h"`
	Rank              string  `json:"rank"`
	ATHDistance       string  `json:"athDistance"`
	ATLDistance       string  `json:"atlDistance"`
	CirculatingSupply string  `json:"circulatingSupply"`
	TotalSupply       string  `json:"totalSupply"`
	MaxSupply         string  `json:"maxSupply"`
	PriceChange24h    float64 `json:"priceChange24h"`
	PriceChange7d     float64 `json:"priceChange7d"`
	PriceChange30d    float64 `json:"priceChange30d"`
}

// CommunityMetrics are optional popularity counters; nil means unknown.
type CommunityMetrics struct {
	GithubStars       *string `json:"githubStars"`
	GithubForks       *string `json:"githubForks"`
	TwitterFollowers  *string `json:"twitterFollowers"`
	RedditSubscribers *string `json:"redditSubscribers"`
}

// GradeReport is the point-in-time grade of a single coin. It is derived
// fresh from a market-data response and never persisted.
type GradeReport struct {
	Coin      CoinIdentity             `json:"coin"`
	Grade     GradeSummary             `json:"grade"`
	Breakdown map[string]BreakdownItem `json:"breakdown"`
	Metrics   GradeMetrics             `json:"metrics"`
	Community CommunityMetrics         `json:"community"`
}

// GradeBrief is the reduced grade returned by batch requests that did not ask
// for details.
type GradeBrief struct {
	Coin      CoinIdentity     `json:"coin"`
	Grade     GradeSummary     `json:"grade"`
	Metrics   BriefMetrics     `json:"metrics"`
	Community CommunityMetrics `json:"community"`
}

// BriefMetrics is the subset of GradeMetrics kept in a GradeBrief.
type BriefMetrics struct {
	CurrentPrice   float64 `json:"currentPrice"`
	MarketCap      string  `json:"marketCap"`
	Rank           string  `json:"rank"`
	PriceChange24h float64 `json:"priceChange24h"`
}

// Brief reduces a full report to its brief form.
func (r *GradeReport) Brief() GradeBrief {
	return GradeBrief{
		Coin:  r.Coin,
		Grade: r.Grade,
		Metrics: BriefMetrics{
			CurrentPrice:   r.Metrics.CurrentPrice,
			MarketCap:      r.Metrics.MarketCap,
			Rank:           r.Metrics.Rank,
			PriceChange24h: r.Metrics.PriceChange24h,
		},
		Community: r.Community,
	}
}

// SummaryCategory is one breakdown entry in the summary format.
type SummaryCategory struct {
	Category string `json:"category"`
	Grade    string `json:"grade"`
	Score    string `json:"score"`
	Weight   string `json:"weight"`
	Reason   string `json:"reason"`
}

// GradeSummaryView is the compact grade format used by mobile clients.
type GradeSummaryView struct {
	Coin  CoinIdentity `json:"coin"`
	Grade struct {
		Final    string  `json:"final"`
		Score    float64 `json:"score"`
		MaxScore float64 `json:"maxScore"`
	} `json:"grade"`
	Metrics   SummaryMetrics    `json:"metrics"`
	Community CommunityMetrics  `json:"community"`
	Breakdown []SummaryCategory `json:"breakdown"`
}

// SummaryMetrics is the metric subset of the summary format.
type SummaryMetrics struct {
	CurrentPrice   float64 `json:"currentPrice"`
	MarketCap      string  `json:"marketCap"`
	Rank           string  `json:"rank"`
	PriceChange24h float64 `json:"priceChange24h"`
	PriceChange7d  float64 `json:"priceChange7d"`
	PriceChange30d float64 `json:"priceChange30d"`
}
