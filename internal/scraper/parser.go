package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

// PageParser locates listing cards in a full page and extracts a record
// from each. cardsFound reports how many card elements the winning
// selector produced; zero means the end of the result set, which is a
// pagination signal, not an error.
type PageParser struct {
	rules     SourceRules
	extractor *FieldExtractor
}

func NewPageParser(rules SourceRules) *PageParser {
	return &PageParser{rules: rules, extractor: NewFieldExtractor(rules)}
}

func (p *PageParser) Parse(pageHTML string) ([]models.PartialRecord, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, 0, err
	}

	cards := p.findCards(doc)
	if cards == nil {
		return nil, 0, nil
	}

	var records []models.PartialRecord
	skipped := 0
	cards.Each(func(i int, card *goquery.Selection) {
		record := p.extractor.Extract(card)
		if record.Title == "" || record.Title == models.FieldUnknown {
			skipped++
			return
		}
		records = append(records, record)
	})

	if skipped > 0 {
		log.Debugf("%s: skipped %d of %d cards without a usable title",
			p.rules.Source, skipped, cards.Length())
	}
	return records, cards.Length(), nil
}

// findCards walks the fallback chain and uses the first selector that
// yields at least one element; results are never merged across selectors.
func (p *PageParser) findCards(doc *goquery.Document) *goquery.Selection {
	for _, selector := range p.rules.CardSelectors {
		if cards := doc.Find(selector); cards.Length() > 0 {
			return cards
		}
	}
	return nil
}
