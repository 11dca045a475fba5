package ingest

import (
	"io"
	"regexp"
	"strings"

	apperrors "continuum/backend/pkg/errors"
	"github.com/PuerkitoBio/goquery"
)

const (
	// MinSnippetLength drops blocks shorter than this many bytes (menus, captions)
	MinSnippetLength = 40
	// MaxSnippets caps snippets taken from one page
	MaxSnippets = 20
	// MaxCandidates caps entity candidates taken from one page
	MaxCandidates = 25
)

// Entity types assigned by the HTML heuristics
const (
	EntityTypeKeyword    = "keyword"
	EntityTypeProperNoun = "proper_noun"
	EntityTypeAcronym    = "acronym"
	EntityTypeConcept    = "concept"
)

// Document is a parsed page ready to be written into a graph
type Document struct {
	URL      string
	Title    string
	Snippets []string
	Entities []Candidate
}

// Candidate is an entity proposed for a page
type Candidate struct {
	Label string
	Type  string
}

var (
	properNounPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){1,3}\b`)
	acronymPattern    = regexp.MustCompile(`^[A-Z][A-Z0-9&]{1,9}$`)
)

// ParseHTML extracts title, text snippets and entity candidates from an
// HTML page. Failures are returned as *errors.ErrParseFailed.
func ParseHTML(pageURL string, r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, apperrors.NewParseFailed(pageURL, err)
	}

	doc.Find("script, style, noscript, iframe, svg, nav, footer, form").Remove()

	d := &Document{
		URL:   pageURL,
		Title: extractTitle(doc),
	}
	d.Snippets = extractSnippets(doc)
	d.Entities = extractCandidates(doc, d.Snippets)
	return d, nil
}

func extractTitle(doc *goquery.Document) string {
	if title := cleanText(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := cleanText(og); title != "" {
			return title
		}
	}
	return cleanText(doc.Find("h1").First().Text())
}

func extractSnippets(doc *goquery.Document) []string {
	snippets := []string{}
	seen := make(map[string]bool)

	doc.Find("p, li, blockquote").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Nested blocks are picked up on their own
		if s.Find("p, li, blockquote").Length() > 0 {
			return true
		}
		text := cleanText(s.Text())
		if len(text) < MinSnippetLength || seen[text] {
			return true
		}
		seen[text] = true
		snippets = append(snippets, text)
		return len(snippets) < MaxSnippets
	})
	return snippets
}

// candidateSet collects candidates, dropping case-insensitive duplicates
// and stopping at MaxCandidates
type candidateSet struct {
	items []Candidate
	seen  map[string]bool
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]bool)}
}

// add records a candidate and reports whether there is room for more
func (c *candidateSet) add(label, entityType string) bool {
	label = cleanText(label)
	key := strings.ToLower(label)
	if label != "" && len(label) <= 80 && !c.seen[key] {
		c.seen[key] = true
		c.items = append(c.items, Candidate{Label: label, Type: entityType})
	}
	return len(c.items) < MaxCandidates
}

// addText records proper-noun runs and acronyms found in plain text
func (c *candidateSet) addText(text string) bool {
	for _, match := range properNounPattern.FindAllString(text, -1) {
		if !c.add(match, EntityTypeProperNoun) {
			return false
		}
	}
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if acronymPattern.MatchString(word) && !c.add(word, EntityTypeAcronym) {
			return false
		}
	}
	return true
}

func extractCandidates(doc *goquery.Document, snippets []string) []Candidate {
	set := newCandidateSet()

	if keywords, ok := doc.Find(`meta[name="keywords"]`).Attr("content"); ok {
		for _, kw := range strings.Split(keywords, ",") {
			if !set.add(kw, EntityTypeKeyword) {
				return set.items
			}
		}
	}

	more := true
	doc.Find("abbr").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cleanText(s.Text())
		if acronymPattern.MatchString(text) {
			more = set.add(text, EntityTypeAcronym)
		}
		return more
	})
	if !more {
		return set.items
	}

	for _, snippet := range snippets {
		for _, match := range properNounPattern.FindAllString(snippet, -1) {
			if !set.add(match, EntityTypeProperNoun) {
				return set.items
			}
		}
	}
	return set.items
}

// TextCandidates proposes entities for plain text from proper-noun runs
// and acronyms
func TextCandidates(text string) []Candidate {
	set := newCandidateSet()
	set.addText(text)
	if set.items == nil {
		return []Candidate{}
	}
	return set.items
}

// cleanText collapses runs of whitespace and trims the result
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
