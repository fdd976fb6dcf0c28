package pipeline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// remoteSchemes are URL prefixes the renderer would have to fetch.
var remoteSchemes = []string{"http:", "https:", "//", "ftp:", "ws:", "wss:"}

// alwaysRemoved lists elements that load or execute external content.
const alwaysRemoved = "link, script, iframe, frame, object, embed, base, meta[http-equiv]"

// Sanitizer cleans summary markup before it leaves the process in another
// form, such as the Markdown export.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a Sanitizer from bluemonday's UGC policy. Links are
// kept as written.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowDataURIImages()
	p.AllowElements("mark")
	return &Sanitizer{policy: p}
}

// Sanitize removes active content (scripts, event handlers, javascript: URLs)
// along with style and class attributes.
func (s *Sanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}

// StripRemoteResources removes elements that reference network resources so
// the document renders offline. The fragment is returned untouched when
// nothing is removed. The second return value counts removed elements.
func StripRemoteResources(fragment string) (string, int, error) {
	if !mayReferenceNetwork(fragment) {
		return fragment, 0, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", 0, fmt.Errorf("parsing HTML: %w", err)
	}

	removed := 0
	doc.Find(alwaysRemoved).Each(func(_ int, sel *goquery.Selection) {
		sel.Remove()
		removed++
	})
	doc.Find("[src], [srcset], [poster], [data]").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"src", "srcset", "poster", "data"} {
			if v, ok := sel.Attr(attr); ok && isRemote(v) {
				sel.Remove()
				removed++
				return
			}
		}
	})

	if removed == 0 {
		return fragment, 0, nil
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", 0, fmt.Errorf("rendering HTML: %w", err)
	}
	return body, removed, nil
}

// mayReferenceNetwork is a cheap pre-check that avoids reparsing plain markup.
func mayReferenceNetwork(fragment string) bool {
	lower := strings.ToLower(fragment)
	for _, needle := range []string{"<link", "<script", "<iframe", "<frame", "<object", "<embed", "<base", "<meta", "src", "poster", "data="} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// isRemote reports whether an attribute value points at the network. srcset
// values hold several candidates, any of which may be remote.
func isRemote(value string) bool {
	for _, candidate := range strings.Split(value, ",") {
		v := strings.ToLower(strings.TrimSpace(candidate))
		for _, scheme := range remoteSchemes {
			if strings.HasPrefix(v, scheme) {
				return true
			}
		}
	}
	return false
}
