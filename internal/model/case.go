package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// CaseStatus is the enforcement state of a channel.
type CaseStatus string

const (
	StatusTerminated    CaseStatus = "TERMINATED"
	StatusReinstated    CaseStatus = "REINSTATED"
	StatusDemonetized   CaseStatus = "DEMONETIZED"
	StatusAgeRestricted CaseStatus = "AGE_RESTRICTED"
	StatusStruck        CaseStatus = "STRUCK"
	StatusUnderReview   CaseStatus = "UNDER_REVIEW"
)

// CaseStatuses lists the enumerated channel statuses in display order.
var CaseStatuses = []CaseStatus{
	StatusTerminated,
	StatusReinstated,
	StatusDemonetized,
	StatusAgeRestricted,
	StatusStruck,
	StatusUnderReview,
}

// Known reports whether s is one of the enumerated statuses. Rows may carry
// free-text values which are kept rather than rejected.
func (s CaseStatus) Known() bool {
	for _, v := range CaseStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AppealStatus is the reported outcome of a creator's appeal.
type AppealStatus string

const (
	AppealPending     AppealStatus = "PENDING"
	AppealUnderReview AppealStatus = "UNDER_REVIEW"
	AppealDenied      AppealStatus = "DENIED"
	AppealOverturned  AppealStatus = "OVERTURNED"
	AppealFinalDenied AppealStatus = "FINAL_DENIED"
	AppealRejected    AppealStatus = "REJECTED"
)

// AppealStatuses lists the enumerated appeal statuses in display order.
var AppealStatuses = []AppealStatus{
	AppealPending,
	AppealUnderReview,
	AppealDenied,
	AppealOverturned,
	AppealFinalDenied,
	AppealRejected,
}

// Known reports whether s is one of the enumerated appeal statuses.
func (s AppealStatus) Known() bool {
	for _, v := range AppealStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Resolved reports whether the appeal reached a final outcome.
func (s AppealStatus) Resolved() bool {
	switch s {
	case AppealOverturned, AppealDenied, AppealFinalDenied, AppealRejected:
		return true
	}
	return false
}

// Case is one community-submitted record of a YouTube enforcement action,
// derived from a single spreadsheet row.
type Case struct {
	ID              string        `json:"id"`
	ChannelName     string        `json:"channelName"`
	ChannelURL      string        `json:"channelUrl,omitempty"`
	TwitterHandle   string        `json:"twitterHandle,omitempty"`
	Status          CaseStatus    `json:"status"`
	Reason          string        `json:"reason"`
	AppealStatus    AppealStatus  `json:"appealStatus"`
	SubmittedDate   string        `json:"submittedDate"`
	TerminationDate string        `json:"terminationDate,omitempty"`
	LastUpdated     string        `json:"lastUpdated,omitempty"`
	Description     string        `json:"description,omitempty"`
	SubscriberCount *int          `json:"subscriberCount,omitempty"`
	Category        string        `json:"category,omitempty"`
	Niche           string        `json:"niche,omitempty"`
	Monetized       *Monetization `json:"monetized,omitempty"`
}

// Monetization is a spreadsheet monetization cell: a recognised yes/no value
// or free text the submitter wrote instead.
type Monetization struct {
	Known bool
	Value bool
	Text  string
}

// MonetizedFlag returns a recognised yes/no monetization value.
func MonetizedFlag(v bool) *Monetization {
	return &Monetization{Known: true, Value: v}
}

// MonetizedText returns a free-text monetization value.
func MonetizedText(s string) *Monetization {
	return &Monetization{Text: s}
}

func (m Monetization) MarshalJSON() ([]byte, error) {
	if m.Known {
		return json.Marshal(m.Value)
	}
	return json.Marshal(m.Text)
}

func (m *Monetization) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*m = Monetization{Known: true, Value: b}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("monetized must be a bool or string: %w", err)
	}
	*m = Monetization{Text: s}
	return nil
}

// Dataset is one normalized copy of the case list together with where it
// came from.
type Dataset struct {
	Cases     []Case    `json:"cases"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	Checksum  string    `json:"checksum"`
}

// Data sources, in fallback order.
const (
	SourceSheet    = "sheet"
	SourceArchive  = "archive"
	SourceSnapshot = "snapshot"
	SourceBundled  = "bundled"
	SourceEmpty    = "empty"
)
