// Package normalize turns loosely-typed spreadsheet rows into cases.
//
// Column headers are matched case-insensitively against an ordered synonym
// list per field; the first synonym whose column holds a non-empty value
// wins. Values outside the known enumerations are kept rather than rejected
// so one bad row never takes the list down.
package normalize

import (
	"strings"

	"github.com/rcleozier/creator-log/internal/sheet"
)

// Field is a case attribute that can be read from a sheet column.
type Field string

const (
	FieldCaseID          Field = "caseId"
	FieldChannelName     Field = "channelName"
	FieldChannelURL      Field = "channelUrl"
	FieldTwitterHandle   Field = "twitterHandle"
	FieldStatus          Field = "status"
	FieldAppealStatus    Field = "appealStatus"
	FieldReason          Field = "reason"
	FieldSubmittedDate   Field = "submittedDate"
	FieldTerminationDate Field = "terminationDate"
	FieldLastUpdated     Field = "lastUpdated"
	FieldDescription     Field = "description"
	FieldSubscriberCount Field = "subscriberCount"
	FieldCategory        Field = "category"
	FieldNiche           Field = "niche"
	FieldMonetized       Field = "monetized"
)

// Synonyms lists the accepted column headers per field, in priority order.
// A bare "Status" column is deliberately absent: it is an internal
// bookkeeping column on the sheet.
var Synonyms = map[Field][]string{
	FieldCaseID:      {"case id", "caseid", "id"},
	FieldChannelName: {"channel name", "channelname", "channel", "name"},
	FieldChannelURL:  {"channel url", "channelurl", "url", "channel link"},
	FieldTwitterHandle: {
		"twitter handle", "twitterhandle", "twitter", "x handle", "x handle (twitter)",
		"twitter/x", "twitter username", "twitterusername", "x username", "xusername",
		"contact", "twitter contact",
	},
	FieldStatus:          {"channel status", "channelstatus", "termination status"},
	FieldAppealStatus:    {"appeal status", "appealstatus", "appeal"},
	FieldReason:          {"reason", "reason given", "reasongiven", "termination reason"},
	FieldSubmittedDate:   {"submitted date", "submitteddate", "submitted", "date submitted"},
	FieldTerminationDate: {"termination date", "terminationdate", "terminated", "date"},
	FieldLastUpdated:     {"last updated", "lastupdated", "updated"},
	FieldDescription: {
		"notes", "description", "why termination is wrongful - full story",
		"full story", "story", "details", "explanation",
	},
	FieldSubscriberCount: {"subscriber count", "subscribercount", "subs", "approx. subs", "approx subs", "subscribers"},
	FieldCategory:        {"category", "type"},
	FieldNiche:           {"niche", "niche/content type", "niche/contenttype", "content type", "contenttype"},
	FieldMonetized:       {"monetized", "monetization", "monetisation"},
}

// internalColumns are sheet columns that never surface as display data.
var internalColumns = map[string]bool{
	"status":  true,
	"case id": true,
	"caseid":  true,
	"id":      true,
}

// IsInternalColumn reports whether a header names a bookkeeping column.
func IsInternalColumn(header string) bool {
	return internalColumns[strings.ToLower(strings.TrimSpace(header))]
}

// index resolves lowercase headers to the actual column names of one table.
// Several columns may share a lowercase form; they are tried in order.
type index map[string][]string

func newIndex(columns []string) index {
	idx := make(index, len(columns))
	for _, col := range columns {
		key := strings.ToLower(col)
		idx[key] = append(idx[key], col)
	}
	return idx
}

// find returns the first non-empty value among the field's synonyms.
func (idx index) find(row sheet.Row, f Field) string {
	for _, name := range Synonyms[f] {
		for _, col := range idx[name] {
			if v := strings.TrimSpace(row[col]); v != "" {
				return v
			}
		}
	}
	return ""
}

// displayPriority orders the columns a table view should lead with.
var displayPriority = []string{
	"channel status",
	"channel name",
	"channel url",
	"contact",
	"twitter handle",
	"termination date",
	"reason",
}

// DisplayColumns returns the columns worth showing, priority columns first
// and the rest in sheet order. Internal and unnamed columns are dropped.
func DisplayColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	used := make(map[string]bool, len(columns))
	for _, want := range displayPriority {
		for _, col := range columns {
			if !used[col] && strings.ToLower(col) == want {
				out = append(out, col)
				used[col] = true
			}
		}
	}
	for _, col := range columns {
		if used[col] || col == "" || IsInternalColumn(col) {
			continue
		}
		out = append(out, col)
		used[col] = true
	}
	return out
}
