package scraper

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

// Locator is one candidate strategy for extracting a field from a card.
// Candidates are evaluated in order, first non-empty match wins.
//
// Selector narrows to a child element (empty means the card itself), Attr
// reads an attribute instead of text, Pattern filters the candidate text
// (submatch 1 when the pattern has one, whole match otherwise), Reject
// discards specific matched values, Value replaces the matched text with a
// fixed classification, and When skips the candidate unless the card
// itself matches the given selector.
type Locator struct {
	Selector string
	Attr     string
	Pattern  *regexp.Regexp
	Reject   []string
	Value    string
	When     string
}

// SourceRules configures one job board: where to fetch, how to paginate,
// which elements are listing cards and how to pull fields out of them.
type SourceRules struct {
	Source    models.Source
	BaseURL   string // origin for resolving relative links
	SearchURL string
	Query     url.Values
	PageParam string // empty when the board gets a single page
	MaxPages  int

	// Ordered fallback chain; the first selector yielding at least one
	// element is used exclusively, results are never merged across chain
	// entries.
	CardSelectors []string

	Title       []Locator
	Company     []Locator
	Location    []Locator
	Salary      []Locator
	JobType     []Locator
	Remote      []Locator
	PostedDate  []Locator
	Description []Locator
	Link        []Locator
}

var (
	// Stepstone cards are free text; locations are guessed with the same
	// heuristic patterns and exclusion words the scraper always used.
	// The first pattern matches arbitrary capitalized words and is known
	// to be ambiguous; keep its ordering as is, the matched substrings
	// are not a contract.
	stepstoneLocationFirst  = regexp.MustCompile(`([A-ZÄÖÜ][a-zäöüß]+(?:\s+[a-zäöüß]+)*(?:\s+\([A-ZÄÖÜ][a-zäöüß\-]+\))?)`)
	stepstoneLocationSecond = regexp.MustCompile(`(\w+(?:,\s*\w+)*)\s+(?:Teilweise\s+Home-Office|Gehalt|vor)`)
	stepstoneLocationReject = []string{"Gehalt", "NEU", "Teilweise", "Home", "Office"}

	stepstonePostedDate = regexp.MustCompile(`vor\s+\d+\s+\w+`)

	reTeilzeit    = regexp.MustCompile(`Teilzeit`)
	reWerkstudent = regexp.MustCompile(`Werkstudent|Working Student`)
	reFreelance   = regexp.MustCompile(`Freelance|Freier`)
	reHomeOffice  = regexp.MustCompile(`Home-Office`)
	reRemote      = regexp.MustCompile(`Remote`)
)

var allRules = []SourceRules{linkedinRules, stepstoneRules, glassdoorRules}

var linkedinRules = SourceRules{
	Source:    models.SourceLinkedin,
	BaseURL:   "https://www.linkedin.com",
	SearchURL: "https://www.linkedin.com/jobs/search/",
	Query: url.Values{
		"f_TPR":    {"r3600"}, // listings posted within the last hour
		"keywords": {"embedded hardware"},
	},
	MaxPages: 1,
	CardSelectors: []string{
		"div.base-card",
		"li.jobs-search-results__list-item",
		"div.job-search-card",
	},
	Title: []Locator{
		{Selector: "h3.base-search-card__title"},
		{Selector: "a.job-card-list__title"},
		{Selector: "h3.job-card-list__title"},
	},
	Company: []Locator{
		{Selector: "h4.base-search-card__subtitle"},
		{Selector: "a.job-card-container__company-name"},
		{Selector: "h4.job-card-container__company-name"},
	},
	Location: []Locator{
		{Selector: "span.job-search-card__location"},
		{Selector: "span.job-card-container__metadata-item"},
	},
	PostedDate: []Locator{
		{Selector: "time", Attr: "datetime"},
		{Selector: "time"},
	},
	Description: []Locator{
		{Selector: "div.base-search-card__snippet"},
	},
	Link: []Locator{
		{Selector: "a.base-card__full-link", Attr: "href"},
		{Selector: `a[href*="/jobs/view/"]`, Attr: "href"},
	},
}

var stepstoneRules = SourceRules{
	Source:    models.SourceStepstone,
	BaseURL:   "https://www.stepstone.de",
	SearchURL: "https://www.stepstone.de/jobs/embedded-hardware",
	Query: url.Values{
		"action":       {"facet_selected:age:age_1"},
		"q":            {"Embedded Hardware "},
		"ag":           {"age_1"},
		"searchOrigin": {"Resultlist_top-search"},
	},
	PageParam: "page",
	MaxPages:  5,
	CardSelectors: []string{
		`article[class*="job"]`,
		`article[class*="listing"]`,
		`article[class*="result"]`,
		`div[class*="job"]`,
		`div[class*="listing"]`,
		`div[class*="result"]`,
		`a[href*="/stellenangebote--"]`,
	},
	Title: []Locator{
		{Selector: `a[href*="/stellenangebote--"] h2, a[href*="/stellenangebote--"] h3, a[href*="/stellenangebote--"] span`},
		{Selector: `a[href*="/stellenangebote--"]`},
		{Selector: "h2, h3, span", When: `a[href*="/stellenangebote--"]`},
		{When: `a[href*="/stellenangebote--"]`},
	},
	Company: []Locator{
		{Selector: `a[href*="/cmp/"]`},
		{Selector: `[class*="company"], [class*="Company"]`},
	},
	Location: []Locator{
		{Pattern: stepstoneLocationFirst, Reject: stepstoneLocationReject},
		{Pattern: stepstoneLocationSecond, Reject: stepstoneLocationReject},
	},
	JobType: []Locator{
		{Pattern: reTeilzeit, Value: "Teilzeit"},
		{Pattern: reWerkstudent, Value: "Werkstudent"},
		{Pattern: reFreelance, Value: "Freelance"},
		{Value: "Vollzeit"},
	},
	Remote: []Locator{
		{Pattern: reHomeOffice, Value: "Teilweise Home-Office"},
		{Pattern: reRemote, Value: "Remote"},
		{Value: "Vor Ort"},
	},
	PostedDate: []Locator{
		{Pattern: stepstonePostedDate},
	},
	Link: []Locator{
		{Selector: `a[href*="/stellenangebote--"]`, Attr: "href"},
		{Attr: "href", When: `a[href*="/stellenangebote--"]`},
	},
}

var glassdoorRules = SourceRules{
	Source:    models.SourceGlassdoor,
	BaseURL:   "https://www.glassdoor.de",
	SearchURL: "https://www.glassdoor.de/Job/deutschland-embedded-hardware-jobs-SRCH_IL.0,11_IN96_KO12,29.htm",
	Query: url.Values{
		"fromAge": {"1"}, // last 24 hours
	},
	MaxPages: 1,
	CardSelectors: []string{
		`li[class*="JobsList_jobListItem"]`,
		`div[data-test="jobListing"]`,
		`article[class*="job"]`,
		`a[href*="/job-listing/"]`,
	},
	Title: []Locator{
		{Selector: `a[class*="jobTitle"], h2[class*="jobTitle"], h3[class*="jobTitle"], a[class*="JobCard_jobTitle"]`},
		{Selector: `a[href*="/job-listing/"]`},
		{When: `a[href*="/job-listing/"]`},
	},
	Company: []Locator{
		{Selector: `span[class*="EmployerProfile"], div[class*="EmployerProfile"]`},
		{Selector: `span[class*="employer"], div[class*="employer"]`},
		{Selector: `span[class*="company"], div[class*="company"]`},
	},
	Location: []Locator{
		{Selector: `span[class*="location"], div[class*="location"]`},
		{Selector: `span[class*="loc"], div[class*="loc"]`},
	},
	Salary: []Locator{
		{Selector: `span[class*="salaryEstimate"], div[class*="salaryEstimate"]`},
		{Selector: `span[class*="salary"], div[class*="salary"]`},
	},
	Link: []Locator{
		{Selector: `a[href*="/job-listing/"]`, Attr: "href"},
		{Attr: "href", When: `a[href*="/job-listing/"]`},
	},
}

// AllRules returns the rulesets in batch order.
func AllRules() []SourceRules {
	return allRules
}

func RulesFor(source models.Source) (SourceRules, error) {
	for _, r := range allRules {
		if r.Source == source {
			return r, nil
		}
	}
	return SourceRules{}, fmt.Errorf("no ruleset for source %q", source)
}
