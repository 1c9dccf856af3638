// Package grading scores a coin's market snapshot with a fixed weighted
// scorecard and maps the weighted sum to a letter grade.
package grading

import (
	"fmt"
	"math"
)

// MaxScore is the best possible weighted score.
const MaxScore = 4.0

type band struct {
	match  func(Metrics) bool
	score  float64
	grade  string
	reason string
}

type category struct {
	key    string
	weight float64
	bands  []band
	value  func(Metrics) string
}

// CategoryResult is the outcome of one scorecard category.
type CategoryResult struct {
	Key    string
	Weight float64
	Score  float64
	Grade  string
	Value  string
	Reason string
}

// WeightLabel renders the weight as a percentage, e.g. "25%".
func (r CategoryResult) WeightLabel() string {
	return fmt.Sprintf("%.0f%%", r.Weight*100)
}

// Result is a complete evaluation.
type Result struct {
	Score      float64
	Final      string
	Categories []CategoryResult
}

func fallback(score float64, grade, reason string) band {
	return band{match: func(Metrics) bool { return true }, score: score, grade: grade, reason: reason}
}

// Categories are evaluated in this order; within each, the first matching
// band wins.
var scorecard = []category{
	{
		key:    "marketCap",
		weight: 0.25,
		value:  func(m Metrics) string { return FormatMarketCap(m.MarketCap) },
		bands: []band{
			{func(m Metrics) bool { return m.MarketCap > 50e9 }, 4, "A", ">$50B (Blue chip)"},
			{func(m Metrics) bool { return m.MarketCap > 10e9 }, 3.5, "A-", ">$10B (Large cap)"},
			{func(m Metrics) bool { return m.MarketCap > 1e9 }, 3, "B", ">$1B (Mid cap)"},
			{func(m Metrics) bool { return m.MarketCap > 100e6 }, 2, "C", ">$100M (Small cap)"},
			{func(m Metrics) bool { return m.MarketCap > 10e6 }, 1, "D", ">$10M (Micro cap)"},
			fallback(0, "F", "<$10M (High risk)"),
		},
	},
	{
		key:    "liquidity",
		weight: 0.20,
		value:  func(m Metrics) string { return fmt.Sprintf("%.1f%%", m.VolumeRatio()) },
		bands: []band{
			{func(m Metrics) bool { return largeCap(m) && m.VolumeRatio() > 2 }, 4, "A", "Excellent liquidity (large cap)"},
			{func(m Metrics) bool { return largeCap(m) && m.VolumeRatio() > 1 }, 3.5, "A-", "Good liquidity (large cap)"},
			{func(m Metrics) bool { return largeCap(m) && m.VolumeRatio() > 0.5 }, 3, "B", "Adequate liquidity (large cap)"},
			{largeCap, 2, "C", "Moderate liquidity (large cap)"},
			{func(m Metrics) bool { return m.VolumeRatio() > 50 }, 4, "A", "Excellent liquidity"},
			{func(m Metrics) bool { return m.VolumeRatio() > 20 }, 3, "B", "Good liquidity"},
			{func(m Metrics) bool { return m.VolumeRatio() > 5 }, 2, "C", "Moderate liquidity"},
			{func(m Metrics) bool { return m.VolumeRatio() > 1 }, 1, "D", "Low liquidity"},
			fallback(0, "F", "Very low liquidity"),
		},
	},
	{
		key:    "volatility",
		weight: 0.15,
		value:  func(m Metrics) string { return fmt.Sprintf("%.1f%%", m.AvgVolatility()) },
		bands: []band{
			{func(m Metrics) bool { return m.AvgVolatility() < 5 }, 4, "A", "Very stable"},
			{func(m Metrics) bool { return m.AvgVolatility() < 10 }, 3, "B", "Stable"},
			{func(m Metrics) bool { return m.AvgVolatility() < 20 }, 2, "C", "Moderate volatility"},
			{func(m Metrics) bool { return m.AvgVolatility() < 40 }, 1, "D", "High volatility"},
			fallback(0, "F", "Extreme volatility"),
		},
	},
	{
		key:    "marketRank",
		weight: 0.10,
		value:  func(m Metrics) string { return fmt.Sprintf("#%d", m.Rank) },
		bands: []band{
			{func(m Metrics) bool { return m.Rank <= 10 }, 4, "A", "Top 10"},
			{func(m Metrics) bool { return m.Rank <= 50 }, 3.5, "A-", "Top 50"},
			{func(m Metrics) bool { return m.Rank <= 100 }, 3, "B", "Top 100"},
			{func(m Metrics) bool { return m.Rank <= 250 }, 2, "C", "Top 250"},
			{func(m Metrics) bool { return m.Rank <= 500 }, 1, "D", "Top 500"},
			fallback(0, "F", "Below 500"),
		},
	},
	{
		key:    "tokenomics",
		weight: 0.10,
		value:  func(m Metrics) string { return fmt.Sprintf("%.1f%% circulating", m.SupplyRatio()) },
		bands: []band{
			{func(m Metrics) bool { return m.SupplyRatio() > 90 && m.CappedSupply() }, 4, "A", "Great supply dynamics"},
			{func(m Metrics) bool { return m.SupplyRatio() > 70 }, 3, "B", "Good supply distribution"},
			{func(m Metrics) bool { return m.SupplyRatio() > 50 }, 2, "C", "Moderate supply"},
			{func(m Metrics) bool { return m.SupplyRatio() > 30 }, 1, "D", "Low circulating supply"},
			fallback(0, "F", "Very low circulating supply"),
		},
	},
	{
		key:    "development",
		weight: 0.08,
		value:  func(m Metrics) string { return fmt.Sprintf("%d commits/month", m.Commits4w) },
		bands: []band{
			{func(m Metrics) bool { return m.Commits4w > 50 }, 4, "A", "Excellent development activity"},
			{func(m Metrics) bool { return m.Commits4w > 20 }, 4, "A", "Very active development"},
			{func(m Metrics) bool { return m.Commits4w > 10 }, 3, "B", "Active development"},
			{func(m Metrics) bool { return m.Commits4w > 5 }, 2, "C", "Moderate development"},
			{func(m Metrics) bool { return m.Commits4w > 1 }, 1, "D", "Low development"},
			fallback(0, "F", "Inactive/Unknown development"),
		},
	},
	{
		key:    "maturity",
		weight: 0.07,
		value: func(m Metrics) string {
			if m.AgeYears > 0 {
				return fmt.Sprintf("%d years old", m.AgeYears)
			}
			return "Unknown age"
		},
		bands: []band{
			{func(m Metrics) bool { return m.AgeYears >= 10 }, 4, "A", "Well-established project"},
			{func(m Metrics) bool { return m.AgeYears >= 5 }, 3.5, "A-", "Mature project"},
			{func(m Metrics) bool { return m.AgeYears >= 3 }, 3, "B", "Established project"},
			{func(m Metrics) bool { return m.AgeYears >= 1 }, 2, "C", "Young project"},
			{func(m Metrics) bool { return m.AgeYears > 0 }, 1, "D", "Very new project"},
			fallback(0, "F", "Unknown age"),
		},
	},
	{
		key:    "growthPotential",
		weight: 0.05,
		value:  func(m Metrics) string { return fmt.Sprintf("%.0f%% from ATH", m.ATHDistance()) },
		bands: []band{
			// Yearly change counts by magnitude.
			{func(m Metrics) bool { return m.ATHDistance() < 20 && math.Abs(m.PriceChange1y) > 50 }, 4, "A", "Near ATH with strong growth"},
			{func(m Metrics) bool { return m.ATHDistance() < 40 && math.Abs(m.PriceChange1y) > 0 }, 3, "B", "Good recovery potential"},
			{func(m Metrics) bool { return m.ATHDistance() < 70 }, 2, "C", "Moderate upside potential"},
			{func(m Metrics) bool { return m.ATHDistance() < 90 }, 1, "D", "High risk/reward"},
			fallback(0, "F", "Far from ATH"),
		},
	},
}

func largeCap(m Metrics) bool { return m.MarketCap > 100e9 }

// cutoffs map the weighted score to a final letter, highest first.
var cutoffs = []struct {
	min   float64
	grade string
}{
	{3.5, "A"},
	{3.2, "A-"},
	{2.9, "B+"},
	{2.6, "B"},
	{2.3, "B-"},
	{2.0, "C+"},
	{1.7, "C"},
	{1.3, "C-"},
	{1.0, "D"},
}

// Evaluate runs the scorecard. It is pure and deterministic.
func Evaluate(m Metrics) Result {
	res := Result{Categories: make([]CategoryResult, 0, len(scorecard))}
	var total float64
	for _, cat := range scorecard {
		b := cat.pick(m)
		total += b.score * cat.weight
		res.Categories = append(res.Categories, CategoryResult{
			Key:    cat.key,
			Weight: cat.weight,
			Score:  b.score,
			Grade:  b.grade,
			Value:  cat.value(m),
			Reason: b.reason,
		})
	}
	// Drop float noise so sums like 3.4999999 land on their cutoff.
	res.Score = math.Round(total*1e9) / 1e9
	res.Final = FinalGrade(res.Score, m.Rank)
	return res
}

// FinalGrade maps a weighted score to a letter. The top-ranked coin gets an
// A from 3.0 upwards.
func FinalGrade(score float64, rank int) string {
	if rank == 1 && score >= 3.0 {
		return "A"
	}
	for _, c := range cutoffs {
		if score >= c.min {
			return c.grade
		}
	}
	return "F"
}

func (c category) pick(m Metrics) band {
	for _, b := range c.bands {
		if b.match(m) {
			return b
		}
	}
	return c.bands[len(c.bands)-1]
}
