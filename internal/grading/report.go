package grading

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rcleozier/creator-log/internal/coingecko"
	"github.com/rcleozier/creator-log/internal/model"
)

// Report grades a coin and assembles the full report.
func Report(c *coingecko.CoinDetail, now time.Time) *model.GradeReport {
	m := FromCoin(c, now)
	res := Evaluate(m)

	breakdown := make(map[string]model.BreakdownItem, len(res.Categories))
	for _, cat := range res.Categories {
		breakdown[cat.Key] = model.BreakdownItem{
			Grade:  cat.Grade,
			Value:  cat.Value,
			Reason: cat.Reason,
			Weight: cat.WeightLabel(),
			Score:  cat.Score,
		}
	}

	image := c.Image.Large
	if image == "" {
		image = c.Image.Small
	}

	maxSupply := "Unlimited"
	if m.CappedSupply() {
		maxSupply = FormatCount(m.MaxSupply)
	}

	return &model.GradeReport{
		Coin: model.CoinIdentity{
			ID:     c.ID,
			Name:   c.Name,
			Symbol: strings.ToUpper(c.Symbol),
			Image:  image,
		},
		Grade: model.GradeSummary{
			Final:    res.Final,
			Score:    fmt.Sprintf("%.2f", res.Score),
			MaxScore: fmt.Sprintf("%.2f", MaxScore),
		},
		Breakdown: breakdown,
		Metrics: model.GradeMetrics{
			CurrentPrice:      m.CurrentPrice,
			MarketCap:         FormatMarketCap(m.MarketCap),
			Volume24h:         fmt.Sprintf("$%.1fM", m.Volume24h/1e6),
			Rank:              fmt.Sprintf("#%d", m.Rank),
			ATHDistance:       fmt.Sprintf("%.1f%% below ATH", m.ATHDistance()),
			ATLDistance:       fmt.Sprintf("%.0f%% above ATL", m.ATLDistance()),
			CirculatingSupply: FormatCount(m.CirculatingSupply),
			TotalSupply:       FormatCount(m.TotalSupply),
			MaxSupply:         maxSupply,
			PriceChange24h:    m.PriceChange24h,
			PriceChange7d:     m.PriceChange7d,
			PriceChange30d:    m.PriceChange30d,
		},
		Community: model.CommunityMetrics{
			GithubStars:       optionalCount(m.GithubStars),
			GithubForks:       optionalCount(m.GithubForks),
			TwitterFollowers:  optionalCount(m.TwitterFollowers),
			RedditSubscribers: optionalCount(m.RedditSubscribers),
		},
	}
}

// Summary reshapes a report into the compact summary format.
func Summary(r *model.GradeReport) model.GradeSummaryView {
	var v model.GradeSummaryView
	v.Coin = r.Coin
	v.Grade.Final = r.Grade.Final
	v.Grade.Score, _ = strconv.ParseFloat(r.Grade.Score, 64)
	v.Grade.MaxScore = MaxScore
	v.Metrics = model.SummaryMetrics{
		CurrentPrice:   r.Metrics.CurrentPrice,
		MarketCap:      r.Metrics.MarketCap,
		Rank:           r.Metrics.Rank,
		PriceChange24h: r.Metrics.PriceChange24h,
		PriceChange7d:  r.Metrics.PriceChange7d,
		PriceChange30d: r.Metrics.PriceChange30d,
	}
	v.Community = r.Community
	v.Breakdown = make([]model.SummaryCategory, 0, len(scorecard))
	for _, cat := range scorecard {
		item, ok := r.Breakdown[cat.key]
		if !ok {
			continue
		}
		v.Breakdown = append(v.Breakdown, model.SummaryCategory{
			Category: cat.key,
			Grade:    item.Grade,
			Score:    item.Value,
			Weight:   item.Weight,
			Reason:   item.Reason,
		})
	}
	return v
}

// FormatMarketCap renders billions with two decimals and anything smaller
// in millions with one, e.g. $1.20B or $850.0M.
func FormatMarketCap(v float64) string {
	if v >= 1e9 {
		return fmt.Sprintf("$%.2fB", v/1e9)
	}
	return fmt.Sprintf("$%.1fM", v/1e6)
}

// FormatCount renders a supply or follower count with thousands separators
// and at most three decimals.
func FormatCount(v float64) string {
	return humanize.CommafWithDigits(v, 3)
}

func optionalCount(v float64) *string {
	if v <= 0 {
		return nil
	}
	s := humanize.Comma(int64(v))
	return &s
}
