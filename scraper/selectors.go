package scraper

import (
	"fmt"
	"strings"
)

// Selectors are exact class matches against the live site. A page whose
// classes drift will stop matching rather than match something else.
const (
	// Listing page
	CardSelector      = `div.w-full.mb-5.mt-5.px-4.lg\:px-0`
	CardTitleSelector = `h2[class*="hidden lg:block"]`

	// Detail page
	TitleSelector               = `xpath=//h1[@class='text-5xl font-bold text-[#212121] w-[500px]']`
	LocationSelector            = `xpath=//p[@class='text-xl font-normal text-[#757575] mt-2 flex justify-start items-center gap-1']`
	CompletionDateSelector      = `xpath=//span[@class='font-bold']`
	ConstructionCompanySelector = `xpath=//h3[@class='text-xl font-semibold text-[#212121]']`
	ConstructionStatusSelector  = `xpath=//li[@class='item-time active']//span[@class='text']`
	NearbyPlacesSelector        = `xpath=//div[@id='Sitios cercanos']//p[@class='text-[#757575] inline-block']`
	AmenitiesSelector           = `xpath=//div[@id='Amenidades']//p[@class='text-[#757575] inline-block']`

	// Unit panel
	ChooseUnitSelector = `xpath=//button[contains(text(), 'Elegir unidad')]`
	UnitGroupSelector  = `div.card-group`
	UnitRowSelector    = `div.label-option`
	UnitNameSelector   = `h3.font-semibold.text-base`
	UnitPriceSelector  = `p.text-base.font-normal.text-\[\#212121\]`
	UnitChipSelector   = `div.flex.flex-wrap`
)

// cardClickSelector matches the card heading whose text contains title.
func cardClickSelector(title string) string {
	return fmt.Sprintf("xpath=//h2[contains(@class, 'hidden lg:block') and contains(text(), %s)]", xpathLiteral(title))
}

// detailHeadingSelector matches the detail page heading once it shows title.
func detailHeadingSelector(title string) string {
	return fmt.Sprintf("xpath=//h1[contains(@class, 'text-5xl font-bold text-[#212121] w-[500px]') and contains(text(), %s)]", xpathLiteral(title))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
