package scraper

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"planos_scrooper/browser"
	"planos_scrooper/models"
)

var priceRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// attributeRule maps keywords found in a chip line to the Unit field the
// line's leading amount is stored in. The first matching rule wins.
type attributeRule struct {
	name     string
	keywords []string
	set      func(u *models.Unit, amount float64)
}

var attributeRules = []attributeRule{
	{"rooms", []string{"habitaciones", "habitación"}, func(u *models.Unit, v float64) { u.Rooms = v }},
	{"bathrooms", []string{"baños", "baño"}, func(u *models.Unit, v float64) { u.Bathrooms = v }},
	{"area_m2", []string{"m2"}, func(u *models.Unit, v float64) { u.AreaM2 = v }},
	{"area_v2", []string{"v2"}, func(u *models.Unit, v float64) { u.AreaV2 = v }},
}

// ParsePrice returns the first number in text with thousands separators
// and currency symbols removed, or 0 when text holds no digits.
func ParsePrice(text string) float64 {
	match := priceRegex.FindString(text)
	if match == "" {
		return 0
	}
	cleaned := strings.NewReplacer(",", "", "$", "").Replace(match)
	price, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0
	}
	return price
}

// ApplyAttributeLine classifies one lowercased chip line and stores its
// amount. Lines without a known keyword are ignored.
func ApplyAttributeLine(u *models.Unit, line string) error {
	rule, ok := matchRule(line)
	if !ok {
		return nil
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty %s line", ErrInvalidAmount, rule.name)
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil || amount < 0 {
		return fmt.Errorf("%w: %s line %q", ErrInvalidAmount, rule.name, line)
	}
	rule.set(u, amount)
	return nil
}

// ApplyChip applies every line of an attribute chip. A bad line is
// reported and skipped; the remaining lines are still applied.
func ApplyChip(u *models.Unit, chipText string) []error {
	var errs []error
	for _, line := range strings.Split(strings.ToLower(strings.TrimSpace(chipText)), "\n") {
		if err := ApplyAttributeLine(u, strings.TrimSpace(line)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func matchRule(line string) (attributeRule, bool) {
	for _, rule := range attributeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(line, kw) {
				return rule, true
			}
		}
	}
	return attributeRule{}, false
}

// ExtractUnits opens the unit panel of detailURL and reads every unit row
// in DOM order. A missing or empty panel yields an empty list.
func (p *Parser) ExtractUnits(detailURL string) ([]models.Unit, error) {
	units := []models.Unit{}

	if err := p.ensurePage(detailURL); err != nil {
		return units, err
	}

	if err := p.session.Click(ChooseUnitSelector, p.waits.Click); err != nil {
		if isAbsent(err) {
			log.Printf("No unit selector on %s: %v", detailURL, err)
			return units, nil
		}
		return units, fmt.Errorf("open unit panel: %w", err)
	}

	if err := p.session.WaitFor(UnitGroupSelector, p.waits.Units); err != nil {
		if isAbsent(err) {
			log.Printf("No units found on %s", detailURL)
			return units, nil
		}
		return units, fmt.Errorf("wait for unit groups: %w", err)
	}

	groups, err := p.session.Find(UnitGroupSelector)
	if err != nil {
		return units, fmt.Errorf("find unit groups: %w", err)
	}
	if len(groups) == 0 {
		log.Printf("No units found on %s", detailURL)
		return units, nil
	}

	for gi, group := range groups {
		rows, err := group.Find(UnitRowSelector)
		if err != nil {
			log.Printf("Skipping unit group %d on %s: %v", gi, detailURL, err)
			continue
		}
		for ri, row := range rows {
			unit, err := unitFromRow(row)
			if err != nil {
				log.Printf("Skipping unit %d.%d on %s: %v", gi, ri, detailURL, err)
				continue
			}
			units = append(units, unit)
		}
	}

	return units, nil
}

func unitFromRow(row browser.Element) (models.Unit, error) {
	var unit models.Unit

	name, err := textIn(row, UnitNameSelector)
	if err != nil {
		return unit, fmt.Errorf("unit name: %w", err)
	}
	unit.Name = name

	priceText, err := textIn(row, UnitPriceSelector)
	switch {
	case err == nil:
		unit.Price = ParsePrice(priceText)
	case !errors.Is(err, browser.ErrElementNotFound):
		return unit, fmt.Errorf("unit price: %w", err)
	}

	chips, err := row.Find(UnitChipSelector)
	if err != nil {
		return unit, fmt.Errorf("unit attributes: %w", err)
	}
	for _, chip := range chips {
		text, err := chip.Text()
		if err != nil {
			return unit, fmt.Errorf("unit attributes: %w", err)
		}
		for _, lineErr := range ApplyChip(&unit, text) {
			log.Printf("Unit %q: %v", unit.Name, lineErr)
		}
	}

	return unit, nil
}

func isAbsent(err error) bool {
	return errors.Is(err, browser.ErrTimeout) || errors.Is(err, browser.ErrElementNotFound)
}
