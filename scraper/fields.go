package scraper

import (
	"fmt"
	"strings"

	"planos_scrooper/browser"
)

// ExtractText returns the trimmed text of the first element matching
// selector on the current page, or browser.ErrElementNotFound.
func ExtractText(s browser.Session, selector string) (string, error) {
	el, err := browser.First(s, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// ExtractAll returns the trimmed text of every element matching selector.
// No match is an empty list, not an error.
func ExtractAll(s browser.Session, selector string) ([]string, error) {
	elems, err := s.Find(selector)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(elems))
	for _, el := range elems {
		text, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("read text of %s: %w", selector, err)
		}
		values = append(values, strings.TrimSpace(text))
	}
	return values, nil
}

func textIn(parent browser.Element, selector string) (string, error) {
	el, err := browser.FirstIn(parent, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}
