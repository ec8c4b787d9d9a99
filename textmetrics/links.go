package textmetrics

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor found in content.
type Link struct {
	URL string `json:"url"`
	Rel string `json:"rel"`
}

// LinkCounts categorizes links by destination and rel.
type LinkCounts struct {
	Internal int `json:"internal"`
	External int `json:"external"`
	Follow   int `json:"follow"`
	Nofollow int `json:"nofollow"`
}

// Parse builds a goquery document from content. HTML parsing is lenient, so
// an error only surfaces when the reader itself fails.
func Parse(content string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

// ExtractLinks returns every anchor with a non-empty href, in document order.
func ExtractLinks(doc *goquery.Document) []Link {
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		links = append(links, Link{URL: href, Rel: s.AttrOr("rel", "")})
	})
	return links
}

// CountElements counts literal occurrences of tag in the document.
func CountElements(doc *goquery.Document, tag string) int {
	return doc.Find(tag).Length()
}

// Domain returns the host of pageURL without a leading "www.". Input that is
// not an absolute URL is treated as a bare domain.
func Domain(pageURL string) string {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return ""
	}
	host := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// CategorizeLinks splits links into internal/external and follow/nofollow.
// A link is internal when it contains domain or is root-relative.
// Protocol-relative URLs ("//host/...") are not root-relative.
func CategorizeLinks(links []Link, domain string) LinkCounts {
	var counts LinkCounts
	domain = strings.ToLower(domain)

	for _, link := range links {
		lower := strings.ToLower(link.URL)
		rootRelative := strings.HasPrefix(lower, "/") && !strings.HasPrefix(lower, "//")
		if rootRelative || (domain != "" && strings.Contains(lower, domain)) {
			counts.Internal++
		} else {
			counts.External++
		}

		if hasRelToken(link.Rel, "nofollow") {
			counts.Nofollow++
		} else {
			counts.Follow++
		}
	}
	return counts
}

func hasRelToken(rel, token string) bool {
	for _, t := range strings.Fields(strings.ToLower(rel)) {
		if t == token {
			return true
		}
	}
	return false
}
