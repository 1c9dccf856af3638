package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/sheet"
)

// Options tunes normalisation. The zero value is ready to use.
type Options struct {
	// Now supplies the default submitted date. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) today() string {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().UTC().Format("2006-01-02")
}

// Cases converts every row of t into a case. Rows are never dropped.
func Cases(t *sheet.Table, opts Options) []model.Case {
	if t == nil {
		return []model.Case{}
	}
	idx := newIndex(t.Columns)
	today := opts.today()

	cases := make([]model.Case, 0, len(t.Rows))
	for i, row := range t.Rows {
		cases = append(cases, caseFromRow(idx, t.Columns, row, i+1, today))
	}
	return cases
}

func caseFromRow(idx index, columns []string, row sheet.Row, n int, today string) model.Case {
	name := SanitizeText(idx.find(row, FieldChannelName))
	if name == "" {
		name = firstDisplayValue(columns, row)
	}
	if name == "" {
		name = fmt.Sprintf("Case %d", n)
	}

	rawURL := idx.find(row, FieldChannelURL)
	submitted := SanitizeText(idx.find(row, FieldSubmittedDate))
	if submitted == "" {
		submitted = today
	}

	return model.Case{
		ID:              DeriveID(idx.find(row, FieldCaseID), rawURL, name, n),
		ChannelName:     name,
		ChannelURL:      SanitizeURL(rawURL),
		TwitterHandle:   SanitizeText(idx.find(row, FieldTwitterHandle)),
		Status:          CaseStatus(idx.find(row, FieldStatus)),
		Reason:          SanitizeText(idx.find(row, FieldReason)),
		AppealStatus:    AppealStatus(idx.find(row, FieldAppealStatus)),
		SubmittedDate:   submitted,
		TerminationDate: SanitizeText(idx.find(row, FieldTerminationDate)),
		LastUpdated:     SanitizeText(idx.find(row, FieldLastUpdated)),
		Description:     SanitizeText(idx.find(row, FieldDescription)),
		SubscriberCount: SubscriberCount(idx.find(row, FieldSubscriberCount)),
		Category:        SanitizeText(idx.find(row, FieldCategory)),
		Niche:           SanitizeText(idx.find(row, FieldNiche)),
		Monetized:       Monetized(SanitizeText(idx.find(row, FieldMonetized))),
	}
}

// firstDisplayValue returns the first non-empty cell in column order,
// skipping internal columns.
func firstDisplayValue(columns []string, row sheet.Row) string {
	for _, col := range columns {
		if IsInternalColumn(col) {
			continue
		}
		if v := SanitizeText(row[col]); v != "" {
			return v
		}
	}
	return ""
}

// Lookup returns the first case addressed by id.
func Lookup(cases []model.Case, id string) (model.Case, bool) {
	for _, c := range cases {
		if MatchID(id, c.ID) {
			return c, true
		}
	}
	return model.Case{}, false
}

// Matches reports whether a case contains query in its channel name,
// reason or description, ignoring case.
func Matches(c model.Case, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.ChannelName), q) ||
		strings.Contains(strings.ToLower(c.Reason), q) ||
		strings.Contains(strings.ToLower(c.Description), q)
}
