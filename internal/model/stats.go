package model

// CaseStats is the headline counter block shown above the case list.
type CaseStats struct {
	TotalCases  int `json:"totalCases"`
	Reinstated  int `json:"reinstated"`
	Terminated  int `json:"terminated"`
	UnderReview int `json:"underReview"`
}

// NamedCount is one slice of a pie or bar chart.
type NamedCount struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// MonthlyCount is the number of cases submitted in a calendar month.
type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Label string `json:"label"` // Jan 2025
	Cases int    `json:"cases"`
}

// ReasonRate is the share of cases with a given reason that were reinstated.
type ReasonRate struct {
	Name  string  `json:"name"`
	Rate  float64 `json:"rate"`
	Total int     `json:"total"`
}

// OutcomePoint is the number of resolved appeals per month, split by outcome.
type OutcomePoint struct {
	Month      string `json:"month"`
	Label      string `json:"label"`
	Reinstated int    `json:"reinstated"`
	Denied     int    `json:"denied"`
}

// Analytics is the chart-ready aggregate over the whole case list.
type Analytics struct {
	Stats                 CaseStats      `json:"stats"`
	ReinstatementRate     float64        `json:"reinstatementRate"`
	AppealStatus          []NamedCount   `json:"appealStatus"`
	ChannelStatus         []NamedCount   `json:"channelStatus"`
	TopReasons            []NamedCount   `json:"topReasons"`
	CasesOverTime         []MonthlyCount `json:"casesOverTime"`
	ReinstatementByReason []ReasonRate   `json:"reinstatementByReason"`
	OutcomeTimeline       []OutcomePoint `json:"outcomeTimeline"`
	Source                string         `json:"source"`
}

// TerminationsResponse is the raw spreadsheet view: every row as a column→value
// object plus the header metadata needed to lay out a table.
type TerminationsResponse struct {
	Data []map[string]string `json:"data"`
	Meta TerminationsMeta    `json:"meta"`
}

// TerminationsMeta describes the raw sheet columns.
type TerminationsMeta struct {
	TotalRows      int      `json:"totalRows"`
	Columns        []string `json:"columns"`
	DisplayColumns []string `json:"displayColumns"`
	ParsedAt       string   `json:"parsedAt"`
}
