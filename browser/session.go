package browser

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimeout         = errors.New("timed out waiting for condition")
	ErrElementNotFound = errors.New("element not found")
	ErrNoWindow        = errors.New("no browser window")
)

// Element is a DOM node on the currently loaded page.
type Element interface {
	Text() (string, error)
	Find(selector string) ([]Element, error)
	Click() error
}

// Session is one browser with an explicit, ordered set of open windows.
// Every query runs against the page of the current window.
type Session interface {
	Navigate(url string) error
	CurrentURL() string

	// WaitFor blocks until selector is attached to the DOM or returns ErrTimeout.
	WaitFor(selector string, timeout time.Duration) error
	Find(selector string) ([]Element, error)
	// Click waits for the first match to become clickable, then clicks it.
	Click(selector string, timeout time.Duration) error
	Content() (string, error)

	// WaitForWindows blocks until exactly n windows are open or returns ErrTimeout.
	WaitForWindows(n int, timeout time.Duration) error
	Windows() []string
	CurrentWindow() string
	SwitchTo(handle string) error
	// CloseWindow closes the current window. No window is current afterwards.
	CloseWindow() error

	Close() error
}

// Load navigates to url and waits for readySelector before returning the
// page source. It is the only wait used for dynamic content.
func Load(s Session, url, readySelector string, timeout time.Duration) (string, error) {
	if err := s.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.WaitFor(readySelector, timeout); err != nil {
		return "", fmt.Errorf("wait for %q on %s: %w", readySelector, url, err)
	}
	return s.Content()
}

// First returns the first match of selector or ErrElementNotFound.
func First(s Session, selector string) (Element, error) {
	elems, err := s.Find(selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return elems[0], nil
}

// FirstIn is First scoped to a parent element.
func FirstIn(parent Element, selector string) (Element, error) {
	elems, err := parent.Find(selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return elems[0], nil
}

// ConvergeWindows closes every window but the first and focuses it.
func ConvergeWindows(s Session) error {
	for {
		handles := s.Windows()
		if len(handles) == 0 {
			return ErrNoWindow
		}
		if len(handles) == 1 {
			if s.CurrentWindow() == handles[0] {
				return nil
			}
			return s.SwitchTo(handles[0])
		}
		last := handles[len(handles)-1]
		if err := s.SwitchTo(last); err != nil {
			return fmt.Errorf("switch to %s: %w", last, err)
		}
		if err := s.CloseWindow(); err != nil {
			return fmt.Errorf("close %s: %w", last, err)
		}
		if len(s.Windows()) >= len(handles) {
			return fmt.Errorf("window %s did not close", last)
		}
	}
}
