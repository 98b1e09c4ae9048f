// Package roster reads team lineups out of league team pages.
package roster

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"dota-draft-helper/internal/steamid"

	"golang.org/x/net/html"
)

const (
	mainClass = "rosterNameContainer"
	altClass  = "rosterNameContainer-alt"
)

// Parsed is a lineup in the same shape a team is created from, so it can be
// reviewed and posted back unchanged.
type Parsed struct {
	Name        string              `json:"name"`
	PlayerIDs   []string            `json:"player_ids"`
	AltAccounts map[string][]string `json:"alt_accounts"`
}

// Profile links in the order they are trusted. Steam links carry 64-bit ids.
var linkPatterns = []struct {
	re      *regexp.Regexp
	steam64 bool
}{
	{regexp.MustCompile(`^steam://friends/add/(\d+)`), true},
	{regexp.MustCompile(`stratz\.com/players/(\d+)`), false},
	{regexp.MustCompile(`opendota\.com/players/(\d+)`), false},
	{regexp.MustCompile(`dotabuff\.com/players/(\d+)`), false},
	{regexp.MustCompile(`steamcommunity\.com/profiles/(\d+)`), true},
}

var leagueHeading = regexp.MustCompile(`(?i)league|season`)

// ParseAD2L reads an AD2L team page. The name is the first h1/h2 heading that
// is not a league or season title. Each main roster entry contributes one
// player; alt entries that follow it are recorded as that player's alts.
// Entries without a recognizable profile link, and repeated ids, are skipped.
func ParseAD2L(r io.Reader) (*Parsed, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse team page: %w", err)
	}

	out := &Parsed{
		PlayerIDs:   []string{},
		AltAccounts: map[string][]string{},
	}

	var headings, mains []*html.Node
	walk(doc, func(n *html.Node) {
		switch {
		case n.Data == "h1" || n.Data == "h2":
			headings = append(headings, n)
		case hasClass(n, mainClass) && !hasClass(n, altClass):
			mains = append(mains, n)
		}
	})

	for _, h := range headings {
		text := strings.TrimSpace(textContent(h))
		if text != "" && !leagueHeading.MatchString(text) {
			out.Name = text
			break
		}
	}

	seen := make(map[string]bool)
	for _, main := range mains {
		mainID, ok := steamIDIn(main)
		if !ok || seen[mainID] {
			continue
		}
		seen[mainID] = true
		out.PlayerIDs = append(out.PlayerIDs, mainID)

		// li cannot nest in li, so alts end up as the following siblings
		var alts []string
		for sib := nextElement(main); sib != nil && hasClass(sib, altClass); sib = nextElement(sib) {
			altID, ok := steamIDIn(sib)
			if ok && !seen[altID] {
				seen[altID] = true
				alts = append(alts, altID)
			}
		}
		if len(alts) > 0 {
			out.AltAccounts[mainID] = alts
		}
	}

	return out, nil
}

// steamIDIn returns the 32-bit id from the highest-priority profile link
// inside n.
func steamIDIn(n *html.Node) (string, bool) {
	var hrefs []string
	walk(n, func(c *html.Node) {
		if c.Data != "a" {
			return
		}
		for _, a := range c.Attr {
			if a.Key == "href" {
				hrefs = append(hrefs, a.Val)
			}
		}
	})

	for _, p := range linkPatterns {
		for _, href := range hrefs {
			m := p.re.FindStringSubmatch(href)
			if m == nil {
				continue
			}
			if !p.steam64 {
				return m[1], true
			}
			id, err := steamid.Normalize(m[1])
			if err != nil {
				continue
			}
			return strconv.FormatInt(id, 10), true
		}
	}
	return "", false
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, f := range strings.Fields(a.Val) {
			if f == class {
				return true
			}
		}
	}
	return false
}

func nextElement(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			collect(k)
		}
	}
	collect(n)
	return b.String()
}
