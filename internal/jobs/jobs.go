// Package jobs scrapes job listings for a category from the job board.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sakif/codeminder/internal/apperror"
)

// MaxResults caps how many listings one search returns.
const MaxResults = 15

const (
	defaultCompany  = "Unknown Company"
	defaultLocation = "No Location"
	defaultDuration = "Duration Not Specified"
	defaultStipend  = "Unpaid"
)

type Job struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Link     string `json:"link,omitempty"`
	Logo     string `json:"logo,omitempty"`
	Duration string `json:"duration"`
	Stipend  string `json:"stipend"`
}

type Scraper struct {
	baseURL string
	http    *http.Client
}

// New returns a Scraper. Search URLs are baseURL followed by the escaped category.
func New(baseURL string, hc *http.Client) *Scraper {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{baseURL: baseURL, http: hc}
}

// Search returns up to MaxResults listings for category.
func (s *Scraper) Search(ctx context.Context, category string) ([]Job, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperror.ValidationFailed("category", "Category is required")
	}

	pageURL := s.baseURL + url.PathEscape(category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("jobs: building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; codeminder)")
	req.Header.Set("Accept", "text/html")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, apperror.Upstream("job board", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream("job board", fmt.Errorf("%s: http %d", pageURL, resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperror.Upstream("job board", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, apperror.Upstream("job board", errors.New("invalid base url"))
	}
	return parseListings(doc, base), nil
}

func parseListings(doc *goquery.Document, base *url.URL) []Job {
	out := []Job{}
	doc.Find(".individual_internship").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		title := text(card.Find("h3 a"))
		if title == "" {
			return true
		}
		job := Job{
			Title:    title,
			Company:  orDefault(text(card.Find(".company_name")), defaultCompany),
			Location: orDefault(text(card.Find(".locations span a")), defaultLocation),
			Duration: orDefault(text(card.Find(".ic-16-briefcase + span")), defaultDuration),
			Stipend:  orDefault(text(card.Find(".ic-16-money + span")), defaultStipend),
		}
		if href, ok := card.Find("a").First().Attr("href"); ok {
			job.Link = resolve(base, href)
		}
		if src, ok := card.Find(".internship_logo img").First().Attr("src"); ok {
			job.Logo = resolve(base, src)
		}
		out = append(out, job)
		return len(out) < MaxResults
	})
	return out
}

func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.First().Text()), " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
