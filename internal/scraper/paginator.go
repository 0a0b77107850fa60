package scraper

import (
	"context"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/embedhunt/jobhunter/internal/domain/models"
	"github.com/embedhunt/jobhunter/internal/logger"
)

// PageRequest describes one page fetch for a source.
type PageRequest struct {
	Source models.Source
	URL    string
	Query  url.Values
	Page   int
}

// PageSource fetches raw markup for a page request. Failure is an error
// return, never a panic; retries and backoff are the collaborator's
// business.
type PageSource interface {
	FetchPage(ctx context.Context, req PageRequest) (string, error)
}

// Paginator drives the parser across successive result pages of one
// source. A fetch failure skips that page and moves on; a page with zero
// cards ends the crawl regardless of remaining page budget.
type Paginator struct {
	rules  SourceRules
	source PageSource
	parser *PageParser
	delay  time.Duration // politeness pause between page requests
}

func NewPaginator(rules SourceRules, source PageSource, delay time.Duration) *Paginator {
	return &Paginator{
		rules:  rules,
		source: source,
		parser: NewPageParser(rules),
		delay:  delay,
	}
}

func (p *Paginator) Collect(ctx context.Context, maxPages int) []models.PartialRecord {
	var collected []models.PartialRecord

	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			break
		}
		if page > 1 && p.delay > 0 {
			time.Sleep(p.delay)
		}

		markup, err := p.source.FetchPage(ctx, p.pageRequest(page))
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeFetch).
				Errorf("%s: failed to fetch page %d: %v", p.rules.Source, page, err)
			continue
		}

		records, cardsFound, err := p.parser.Parse(markup)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeParse).
				Errorf("%s: failed to parse page %d: %v", p.rules.Source, page, err)
			continue
		}
		if cardsFound == 0 {
			log.Infof("%s: no cards on page %d, stopping pagination", p.rules.Source, page)
			break
		}

		for _, record := range records {
			if record.Usable() {
				collected = append(collected, record)
			}
		}
		log.Infof("%s: page %d yielded %d cards, total records: %d",
			p.rules.Source, page, cardsFound, len(collected))
	}

	return collected
}

func (p *Paginator) pageRequest(page int) PageRequest {
	query := url.Values{}
	for k, vs := range p.rules.Query {
		query[k] = vs
	}
	if page > 1 && p.rules.PageParam != "" {
		query.Set(p.rules.PageParam, strconv.Itoa(page))
	}
	return PageRequest{
		Source: p.rules.Source,
		URL:    p.rules.SearchURL,
		Query:  query,
		Page:   page,
	}
}
