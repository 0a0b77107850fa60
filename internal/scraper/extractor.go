package scraper

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

// FieldExtractor turns one listing card into a PartialRecord by walking
// each field's locator candidates in order and taking the first non-empty
// match. A field whose candidates all miss resolves to models.FieldUnknown;
// the URL is the exception, it stays empty so the record can be rejected
// as unusable instead of persisting a sentinel identity.
type FieldExtractor struct {
	rules SourceRules
	base  *url.URL
}

func NewFieldExtractor(rules SourceRules) *FieldExtractor {
	base, err := url.Parse(rules.BaseURL)
	if err != nil {
		base = nil
	}
	return &FieldExtractor{rules: rules, base: base}
}

func (e *FieldExtractor) Extract(card *goquery.Selection) models.PartialRecord {
	return models.PartialRecord{
		Title:        e.field(card, e.rules.Title),
		Company:      e.field(card, e.rules.Company),
		Location:     e.field(card, e.rules.Location),
		Salary:       e.field(card, e.rules.Salary),
		JobType:      e.field(card, e.rules.JobType),
		RemoteOption: e.field(card, e.rules.Remote),
		PostedDate:   e.field(card, e.rules.PostedDate),
		Description:  e.field(card, e.rules.Description),
		URL:          ResolveURL(e.base, e.firstMatch(card, e.rules.Link)),
	}
}

func (e *FieldExtractor) field(card *goquery.Selection, candidates []Locator) string {
	if v := e.firstMatch(card, candidates); v != "" {
		return v
	}
	return models.FieldUnknown
}

func (e *FieldExtractor) firstMatch(card *goquery.Selection, candidates []Locator) string {
	for _, loc := range candidates {
		if v := evalLocator(card, loc); v != "" {
			return v
		}
	}
	return ""
}

// evalLocator applies one candidate strategy. Any miss along the way —
// absent element, absent attribute, unmatched pattern, rejected value —
// yields "" so the next candidate gets its turn; nothing here may fail a
// sibling field.
func evalLocator(card *goquery.Selection, loc Locator) string {
	if loc.When != "" && !card.Is(loc.When) {
		return ""
	}

	target := card
	if loc.Selector != "" {
		target = card.Find(loc.Selector).First()
		if target.Length() == 0 {
			// the card element itself may be what the selector names,
			// e.g. when the fallback chain matched bare anchors
			if card.Is(loc.Selector) {
				target = card
			} else {
				return ""
			}
		}
	}

	var text string
	if loc.Attr != "" {
		text, _ = target.Attr(loc.Attr)
	} else {
		text = target.Text()
	}
	text = CleanText(text)

	if loc.Pattern != nil {
		m := loc.Pattern.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		if len(m) > 1 {
			text = m[1]
		} else {
			text = m[0]
		}
		for _, rej := range loc.Reject {
			if text == rej {
				return ""
			}
		}
		if loc.Value != "" {
			return loc.Value
		}
		return CleanText(text)
	}

	if loc.Value != "" {
		return loc.Value
	}
	return text
}
