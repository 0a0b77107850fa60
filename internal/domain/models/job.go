package models

import (
	"errors"
	"time"
)

type Source string

const (
	SourceLinkedin  Source = "linkedin"
	SourceStepstone Source = "stepstone"
	SourceGlassdoor Source = "glassdoor"
)

// AllSources is the fixed batch order: linkedin first (its search already
// filters to the last hour), then the 24h-window boards.
var AllSources = []Source{SourceLinkedin, SourceStepstone, SourceGlassdoor}

func ToSource(s string) (Source, error) {
	switch s {
	case string(SourceLinkedin):
		return SourceLinkedin, nil
	case string(SourceStepstone):
		return SourceStepstone, nil
	case string(SourceGlassdoor):
		return SourceGlassdoor, nil
	default:
		return "", errors.New("invalid source")
	}
}

// FieldUnknown marks a field whose locators all came up empty. It is
// distinct from "": an empty string means the field was never extracted at
// all, the sentinel means extraction ran and found nothing.
const FieldUnknown = "unknown"

// PartialRecord is what the extractor produces from one listing card,
// before dedup classification assigns timestamps and flags.
type PartialRecord struct {
	Title       string
	Company     string
	Location    string
	Salary      string
	JobType     string
	RemoteOption string
	PostedDate  string
	Description string
	URL         string
}

// Usable reports whether the record can enter accumulation: an untitled
// card is noise, not a listing, and without a URL there is no identity.
func (r PartialRecord) Usable() bool {
	return r.URL != "" && r.Title != "" && r.Title != FieldUnknown
}

type Job struct {
	ID           int
	Source       Source `gorm:"index"`
	Title        string
	Company      string
	Location     string
	Salary       string
	JobType      string
	RemoteOption string
	PostedDate   string
	Description  string
	URL          string `gorm:"uniqueIndex;size:1000"`

	FirstSeen       time.Time `gorm:"index"`
	LastSeen        time.Time
	IsNewInLastHour bool `gorm:"index"`
}
