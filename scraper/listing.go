package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"planos_scrooper/browser"
	"planos_scrooper/models"
)

// Stage tells how far a card got before it failed.
type Stage string

const (
	StageCard   Stage = "card"   // detail tab never opened
	StageDetail Stage = "detail" // detail tab opened and was closed again
)

// CardOutcome is the result of one card: a property or the error that
// stopped it.
type CardOutcome struct {
	Index    int
	Title    string
	URL      string
	Stage    Stage
	Property *models.Property
	Err      error
}

func (o CardOutcome) OK() bool {
	return o.Err == nil && o.Property != nil
}

type ListingResult struct {
	URL   string
	Cards []CardOutcome
}

// Properties returns the parsed properties in card order.
func (r *ListingResult) Properties() []models.Property {
	props := make([]models.Property, 0, len(r.Cards))
	for _, c := range r.Cards {
		if c.OK() {
			props = append(props, *c.Property)
		}
	}
	return props
}

func (r *ListingResult) Failed() []CardOutcome {
	var failed []CardOutcome
	for _, c := range r.Cards {
		if !c.OK() {
			failed = append(failed, c)
		}
	}
	return failed
}

// Navigator walks the cards of a listing page, opening each one's detail
// page in its own tab. It never leaves more than the listing window open
// between cards.
type Navigator struct {
	session browser.Session
	parser  *Parser
	waits   Waits
}

func NewNavigator(session browser.Session, waits Waits) *Navigator {
	return &Navigator{
		session: session,
		parser:  NewParser(session, waits),
		waits:   waits,
	}
}

// ParseListing parses every titled card of listingURL. Only a failure to
// load the listing page itself is returned as an error; card failures are
// recorded in the result. ctx is checked between cards.
func (n *Navigator) ParseListing(ctx context.Context, listingURL string) (*ListingResult, error) {
	page, err := browser.Load(n.session, listingURL, CardSelector, n.waits.Listing)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}

	titles, err := CardTitles(page)
	if err != nil {
		return nil, fmt.Errorf("read listing cards: %w", err)
	}
	log.Printf("Found %d cards on %s", len(titles), listingURL)

	result := &ListingResult{URL: listingURL}
	for i, title := range titles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if title == "" {
			continue
		}

		outcome := n.parseCard(listingURL, i, title)
		if outcome.OK() {
			log.Printf("Property %q parsed successfully.", outcome.Property.Title)
		} else {
			log.Printf("Unable to parse property %q (%s, %s): %v", title, outcome.Stage, outcome.URL, outcome.Err)
		}
		result.Cards = append(result.Cards, outcome)
	}

	return result, nil
}

func (n *Navigator) parseCard(listingURL string, index int, title string) (outcome CardOutcome) {
	outcome = CardOutcome{Index: index, Title: title, Stage: StageCard}

	if err := n.resetToListing(listingURL); err != nil {
		outcome.Err = fmt.Errorf("reset listing window: %w", err)
		return outcome
	}

	if err := n.session.Click(cardClickSelector(title), n.waits.Click); err != nil {
		outcome.Err = fmt.Errorf("click card: %w", err)
		return outcome
	}

	if err := n.session.WaitForWindows(2, n.waits.Window); err != nil {
		outcome.Err = fmt.Errorf("wait for detail tab: %w", err)
		return outcome
	}

	handles := n.session.Windows()
	main, detail := handles[0], handles[len(handles)-1]
	outcome.Stage = StageDetail
	defer func() {
		if err := n.closeDetailTab(main, detail); err != nil {
			log.Printf("Failed to close detail tab for %q: %v", title, err)
		}
	}()

	if err := n.session.SwitchTo(detail); err != nil {
		outcome.Err = fmt.Errorf("switch to detail tab: %w", err)
		return outcome
	}

	log.Printf("- Trying to parse %s", n.session.CurrentURL())
	if err := n.session.WaitFor(detailHeadingSelector(title), n.waits.Detail); err != nil {
		outcome.URL = n.session.CurrentURL()
		outcome.Err = fmt.Errorf("wait for detail heading: %w", err)
		return outcome
	}
	outcome.URL = n.session.CurrentURL()

	prop, err := n.parser.ParseProperty(outcome.URL)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	log.Printf("+ Parsed %s successfully", prop.Title)
	outcome.Property = prop
	return outcome
}

// resetToListing leaves one window open showing listingURL.
func (n *Navigator) resetToListing(listingURL string) error {
	if err := browser.ConvergeWindows(n.session); err != nil {
		return err
	}
	if n.session.CurrentURL() == listingURL {
		return nil
	}
	_, err := browser.Load(n.session, listingURL, CardSelector, n.waits.Listing)
	return err
}

func (n *Navigator) closeDetailTab(main, detail string) error {
	if n.session.CurrentWindow() != detail {
		if err := n.session.SwitchTo(detail); err != nil {
			return err
		}
	}
	if err := n.session.CloseWindow(); err != nil {
		return err
	}
	return n.session.SwitchTo(main)
}

// CardTitles returns the heading text of every card in a listing page
// snapshot, in page order. Cards without a heading yield "".
func CardTitles(page string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var titles []string
	doc.Find(CardSelector).Each(func(_ int, card *goquery.Selection) {
		titles = append(titles, ownText(card.Find(CardTitleSelector)))
	})
	return titles, nil
}

// ownText is the first non-blank text node directly under the selection.
func ownText(sel *goquery.Selection) string {
	text := ""
	sel.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if c.Nodes[0].Type != html.TextNode {
			return true
		}
		if t := strings.TrimSpace(c.Text()); t != "" {
			text = t
			return false
		}
		return true
	})
	return text
}
