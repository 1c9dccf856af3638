package coingecko

// MarketCoin is one row of the /coins/markets listing.
type MarketCoin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
	FullyDilutedValuation    *float64 `json:"fully_diluted_valuation"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
	PriceChange24h           *float64 `json:"price_change_24h"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	TotalSupply              *float64 `json:"total_supply"`
	MaxSupply                *float64 `json:"max_supply"`
	ATH                      *float64 `json:"ath"`
	ATHChangePercentage      *float64 `json:"ath_change_percentage"`
	ATHDate                  string   `json:"ath_date,omitempty"`
	ATL                      *float64 `json:"atl"`
	ATLChangePercentage      *float64 `json:"atl_change_percentage"`
	ATLDate                  string   `json:"atl_date,omitempty"`
	LastUpdated              string   `json:"last_updated,omitempty"`

	PriceChangePercentage24hInCurrency *float64 `json:"price_change_percentage_24h_in_currency,omitempty"`
	PriceChangePercentage7dInCurrency  *float64 `json:"price_change_percentage_7d_in_currency,omitempty"`
}

// CoinDetail is the subset of /coins/{id} used for grading.
type CoinDetail struct {
	ID            string         `json:"id"`
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Image         Images         `json:"image"`
	GenesisDate   *string        `json:"genesis_date"`
	MarketCapRank *int           `json:"market_cap_rank"`
	MarketData    MarketData     `json:"market_data"`
	DeveloperData *DeveloperData `json:"developer_data"`
	CommunityData *CommunityData `json:"community_data"`
}

type Images struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Large string `json:"large"`
}

// MarketData holds per-currency figures keyed by currency code ("usd").
type MarketData struct {
	CurrentPrice map[string]float64 `json:"current_price"`
	MarketCap    map[string]float64 `json:"market_cap"`
	TotalVolume  map[string]float64 `json:"total_volume"`
	ATH          map[string]float64 `json:"ath"`
	ATL          map[string]float64 `json:"atl"`
	ATHDate      map[string]string  `json:"ath_date"`

	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  *float64 `json:"price_change_percentage_7d"`
	PriceChangePercentage30d *float64 `json:"price_change_percentage_30d"`
	PriceChangePercentage1y  *float64 `json:"price_change_percentage_1y"`

	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`
}

type DeveloperData struct {
	Forks             *float64 `json:"forks"`
	Stars             *float64 `json:"stars"`
	CommitCount4Weeks *float64 `json:"commit_count_4_weeks"`
}

type CommunityData struct {
	TwitterFollowers  *float64 `json:"twitter_followers"`
	RedditSubscribers *float64 `json:"reddit_subscribers"`
}

// Currency is the quote currency used throughout.
const Currency = "usd"
