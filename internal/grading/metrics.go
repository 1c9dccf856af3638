package grading

import (
	"math"
	"time"

	"github.com/rcleozier/creator-log/internal/coingecko"
)

const (
	unrankedRank = 9999
	// A max supply at or above this is treated as unlimited.
	uncappedSupply = 1e15
)

// Metrics is the market snapshot a grade is computed from. Price changes
// are signed percentages as reported upstream.
type Metrics struct {
	CurrentPrice float64
	MarketCap    float64
	Volume24h    float64
	Rank         int

	PriceChange24h float64
	PriceChange7d  float64
	PriceChange30d float64
	PriceChange1y  float64

	CirculatingSupply float64
	TotalSupply       float64
	MaxSupply         float64

	ATH float64
	ATL float64

	AgeYears          int
	Commits4w         int
	GithubStars       float64
	GithubForks       float64
	TwitterFollowers  float64
	RedditSubscribers float64
}

// FromCoin derives Metrics from a coin detail response. Missing values fall
// back as follows: rank to 9999, total supply to circulating, max supply to
// total, ATH and ATL to the current price, and age to 0.
func FromCoin(c *coingecko.CoinDetail, now time.Time) Metrics {
	md := c.MarketData
	m := Metrics{
		CurrentPrice:      md.CurrentPrice[coingecko.Currency],
		MarketCap:         md.MarketCap[coingecko.Currency],
		Volume24h:         md.TotalVolume[coingecko.Currency],
		Rank:              unrankedRank,
		PriceChange24h:    deref(md.PriceChangePercentage24h),
		PriceChange7d:     deref(md.PriceChangePercentage7d),
		PriceChange30d:    deref(md.PriceChangePercentage30d),
		PriceChange1y:     deref(md.PriceChangePercentage1y),
		CirculatingSupply: deref(md.CirculatingSupply),
	}
	if c.MarketCapRank != nil && *c.MarketCapRank > 0 {
		m.Rank = *c.MarketCapRank
	}

	m.TotalSupply = orElse(deref(md.TotalSupply), m.CirculatingSupply)
	m.MaxSupply = orElse(deref(md.MaxSupply), m.TotalSupply)
	m.ATH = orElse(md.ATH[coingecko.Currency], m.CurrentPrice)
	m.ATL = orElse(md.ATL[coingecko.Currency], m.CurrentPrice)

	if c.GenesisDate != nil {
		m.AgeYears = ageYears(*c.GenesisDate, now)
	}
	if d := c.DeveloperData; d != nil {
		m.Commits4w = int(deref(d.CommitCount4Weeks))
		m.GithubStars = deref(d.Stars)
		m.GithubForks = deref(d.Forks)
	}
	if cd := c.CommunityData; cd != nil {
		m.TwitterFollowers = deref(cd.TwitterFollowers)
		m.RedditSubscribers = deref(cd.RedditSubscribers)
	}
	return m
}

// VolumeRatio is 24h volume as a percentage of market cap.
func (m Metrics) VolumeRatio() float64 {
	if m.MarketCap <= 0 {
		return 0
	}
	return m.Volume24h / m.MarketCap * 100
}

// SupplyRatio is circulating supply as a percentage of total supply.
func (m Metrics) SupplyRatio() float64 {
	if m.TotalSupply <= 0 {
		return 100
	}
	return m.CirculatingSupply / m.TotalSupply * 100
}

// AvgVolatility is the mean absolute 24h, 7d and 30d price change.
func (m Metrics) AvgVolatility() float64 {
	return (math.Abs(m.PriceChange24h) + math.Abs(m.PriceChange7d) + math.Abs(m.PriceChange30d)) / 3
}

// ATHDistance is how far the price sits below its all-time high, in percent.
func (m Metrics) ATHDistance() float64 {
	if m.ATH <= 0 {
		return 0
	}
	return (m.ATH - m.CurrentPrice) / m.ATH * 100
}

// ATLDistance is how far the price sits above its all-time low, in percent.
func (m Metrics) ATLDistance() float64 {
	if m.ATL <= 0 {
		return 0
	}
	return (m.CurrentPrice - m.ATL) / m.ATL * 100
}

// CappedSupply reports whether the coin has a finite max supply.
func (m Metrics) CappedSupply() bool {
	return m.MaxSupply > 0 && m.MaxSupply < uncappedSupply
}

func ageYears(genesis string, now time.Time) int {
	t, err := time.Parse("2006-01-02", genesis)
	if err != nil {
		return 0
	}
	years := int(now.Sub(t).Hours() / (24 * 365))
	if years < 0 {
		return 0
	}
	return years
}

func deref(p *float64) float64 {
	if p == nil || math.IsNaN(*p) {
		return 0
	}
	return *p
}

func orElse(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
