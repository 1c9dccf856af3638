package service

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rcleozier/creator-log/internal/model"
)

const (
	topReasons       = 10
	rateMinCases     = 3
	rateTopReasons   = 8
	rateNameMaxLen   = 30
	unknownReason    = "Unknown"
	unknownStatus    = "UNKNOWN"
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
)

// Spreadsheet dates are free text; these are the layouts submitters use.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// BuildStats counts cases by headline outcome. Pending appeals count as
// under review.
func BuildStats(list []model.Case) model.CaseStats {
	st := model.CaseStats{TotalCases: len(list)}
	for _, c := range list {
		switch c.Status {
		case model.StatusReinstated:
			st.Reinstated++
		case model.StatusTerminated:
			st.Terminated++
		}
		if c.AppealStatus == model.AppealUnderReview || c.AppealStatus == model.AppealPending {
			st.UnderReview++
		}
	}
	return st
}

// BuildAnalytics aggregates the case list into chart series. Cases whose
// dates cannot be parsed are left out of the time series only.
func BuildAnalytics(list []model.Case) model.Analytics {
	a := model.Analytics{
		Stats:                 BuildStats(list),
		AppealStatus:          []model.NamedCount{},
		ChannelStatus:         []model.NamedCount{},
		TopReasons:            []model.NamedCount{},
		CasesOverTime:         []model.MonthlyCount{},
		ReinstatementByReason: []model.ReasonRate{},
		OutcomeTimeline:       []model.OutcomePoint{},
	}
	if len(list) == 0 {
		return a
	}
	a.ReinstatementRate = percent(a.Stats.Reinstated, len(list))

	appeal := newCounter()
	channel := newCounter()
	reasons := newCounter()
	for _, c := range list {
		appeal.add(orDefault(string(c.AppealStatus), unknownStatus))
		channel.add(orDefault(string(c.Status), unknownStatus))
		reasons.add(orDefault(c.Reason, unknownReason))
	}
	a.AppealStatus = appeal.named(statusLabel)
	a.ChannelStatus = channel.named(statusLabel)

	top := reasons.named(func(s string) string { return s })
	sort.SliceStable(top, func(i, j int) bool { return top[i].Value > top[j].Value })
	if len(top) > topReasons {
		top = top[:topReasons]
	}
	a.TopReasons = top

	a.CasesOverTime = casesPerMonth(list)
	a.ReinstatementByReason = reinstatementByReason(list)
	a.OutcomeTimeline = outcomeTimeline(list)
	return a
}

func casesPerMonth(list []model.Case) []model.MonthlyCount {
	counts := map[string]int{}
	for _, c := range list {
		t, ok := parseDate(c.SubmittedDate)
		if !ok {
			continue
		}
		counts[t.Format(monthKeyLayout)]++
	}
	out := make([]model.MonthlyCount, 0, len(counts))
	for _, month := range sortedKeys(counts) {
		out = append(out, model.MonthlyCount{
			Month: month,
			Label: monthLabel(month),
			Cases: counts[month],
		})
	}
	return out
}

func reinstatementByReason(list []model.Case) []model.ReasonRate {
	type tally struct{ total, reinstated int }
	order := []string{}
	byReason := map[string]*tally{}
	for _, c := range list {
		reason := orDefault(c.Reason, unknownReason)
		t, ok := byReason[reason]
		if !ok {
			t = &tally{}
			byReason[reason] = t
			order = append(order, reason)
		}
		t.total++
		if c.Status == model.StatusReinstated {
			t.reinstated++
		}
	}

	out := []model.ReasonRate{}
	for _, reason := range order {
		t := byReason[reason]
		if t.total < rateMinCases {
			continue
		}
		out = append(out, model.ReasonRate{
			Name:  ellipsize(reason, rateNameMaxLen),
			Rate:  percent(t.reinstated, t.total),
			Total: t.total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rate > out[j].Rate })
	if len(out) > rateTopReasons {
		out = out[:rateTopReasons]
	}
	return out
}

// outcomeTimeline buckets resolved appeals by the month they were last
// updated, or submitted when no update date is known.
func outcomeTimeline(list []model.Case) []model.OutcomePoint {
	points := map[string]*model.OutcomePoint{}
	for _, c := range list {
		if !c.AppealStatus.Resolved() {
			continue
		}
		date := c.LastUpdated
		if strings.TrimSpace(date) == "" {
			date = c.SubmittedDate
		}
		t, ok := parseDate(date)
		if !ok {
			continue
		}
		month := t.Format(monthKeyLayout)
		p, ok := points[month]
		if !ok {
			p = &model.OutcomePoint{Month: month, Label: monthLabel(month)}
			points[month] = p
		}
		if c.AppealStatus == model.AppealOverturned || c.Status == model.StatusReinstated {
			p.Reinstated++
		} else {
			p.Denied++
		}
	}

	months := make([]string, 0, len(points))
	for m := range points {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]model.OutcomePoint, 0, len(months))
	for _, m := range months {
		out = append(out, *points[m])
	}
	return out
}

// counter counts keys and remembers first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) named(label func(string) string) []model.NamedCount {
	out := make([]model.NamedCount, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, model.NamedCount{Key: k, Name: label(k), Value: c.counts[k]})
	}
	return out
}

var titleCaser = cases.Title(language.English)

// statusLabel turns UNDER_REVIEW into "Under Review".
func statusLabel(status string) string {
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(status, "_", " ")))
}

func monthLabel(month string) string {
	t, err := time.Parse(monthKeyLayout, month)
	if err != nil {
		return month
	}
	return t.Format(monthLabelLayout)
}

func ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
