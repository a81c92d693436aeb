package browser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

const (
	viewportWidth  = 1920
	viewportHeight = 1080

	windowPollInterval = 100 * time.Millisecond
	elementTextTimeout = 5 * time.Second
)

type Options struct {
	Headless          bool
	UserDataDir       string
	InstallDriver     bool
	NavigationTimeout time.Duration
}

// PlaywrightSession drives one Chromium browser context. Pages of the
// context are the session's windows; each gets a stable handle.
type PlaywrightSession struct {
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	mu      sync.Mutex
	handles map[playwright.Page]string
	order   []playwright.Page
	current playwright.Page
}

// NewSession launches the browser with a fixed 1920x1080 maximized window
// whether or not it runs headless, and opens the first window.
func NewSession(opts Options) (*PlaywrightSession, error) {
	if opts.InstallDriver {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	s := &PlaywrightSession{
		opts:    opts,
		pw:      pw,
		handles: make(map[playwright.Page]string),
	}

	args := []string{
		fmt.Sprintf("--window-size=%d,%d", viewportWidth, viewportHeight),
		"--start-maximized",
		"--disable-dev-shm-usage",
	}
	viewport := &playwright.Size{Width: viewportWidth, Height: viewportHeight}

	if opts.UserDataDir != "" {
		s.context, err = pw.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     args,
			Viewport: viewport,
		})
	} else {
		s.browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Args:     args,
		})
		if err == nil {
			s.context, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
				Viewport: viewport,
			})
		}
	}
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	// Persistent contexts start with a blank page already open.
	if len(s.context.Pages()) == 0 {
		if _, err := s.context.NewPage(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	s.syncWindows()
	s.current = s.order[0]
	return s, nil
}

func (s *PlaywrightSession) Navigate(url string) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	_, err = page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(s.opts.NavigationTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return translate(err)
}

func (s *PlaywrightSession) CurrentURL() string {
	page, err := s.page()
	if err != nil {
		return ""
	}
	return page.URL()
}

func (s *PlaywrightSession) WaitFor(selector string, timeout time.Duration) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	err = page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return translate(err)
}

func (s *PlaywrightSession) Find(selector string) ([]Element, error) {
	page, err := s.page()
	if err != nil {
		return nil, err
	}
	return all(page.Locator(selector))
}

func (s *PlaywrightSession) Click(selector string, timeout time.Duration) error {
	page, err := s.page()
	if err != nil {
		return err
	}
	err = page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return translate(err)
}

func (s *PlaywrightSession) Content() (string, error) {
	page, err := s.page()
	if err != nil {
		return "", err
	}
	content, err := page.Content()
	return content, translate(err)
}

func (s *PlaywrightSession) WaitForWindows(n int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(windowPollInterval)
	defer ticker.Stop()

	for {
		if len(s.Windows()) == n {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d windows", ErrTimeout, n)
		}
		<-ticker.C
	}
}

func (s *PlaywrightSession) Windows() []string {
	s.syncWindows()

	s.mu.Lock()
	defer s.mu.Unlock()
	handles := make([]string, 0, len(s.order))
	for _, p := range s.order {
		handles = append(handles, s.handles[p])
	}
	return handles
}

func (s *PlaywrightSession) CurrentWindow() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.handles[s.current]
}

func (s *PlaywrightSession) SwitchTo(handle string) error {
	s.syncWindows()

	s.mu.Lock()
	var target playwright.Page
	for _, p := range s.order {
		if s.handles[p] == handle {
			target = p
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return fmt.Errorf("%w: %s", ErrNoWindow, handle)
	}
	if err := target.BringToFront(); err != nil {
		return translate(err)
	}

	s.mu.Lock()
	s.current = target
	s.mu.Unlock()
	return nil
}

func (s *PlaywrightSession) CloseWindow() error {
	s.mu.Lock()
	page := s.current
	s.current = nil
	s.mu.Unlock()

	if page == nil {
		return ErrNoWindow
	}
	if err := page.Close(); err != nil {
		return translate(err)
	}
	s.syncWindows()
	return nil
}

func (s *PlaywrightSession) Close() error {
	var errs []error
	if s.context != nil {
		errs = append(errs, s.context.Close())
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
	}
	return errors.Join(errs...)
}

func (s *PlaywrightSession) page() (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.IsClosed() {
		return nil, ErrNoWindow
	}
	return s.current, nil
}

// syncWindows reconciles the tracked window set with the context's pages,
// keeping creation order and assigning handles to new pages.
func (s *PlaywrightSession) syncWindows() {
	pages := s.context.Pages()

	s.mu.Lock()
	defer s.mu.Unlock()

	open := make(map[playwright.Page]bool, len(pages))
	for _, p := range pages {
		open[p] = true
		if _, ok := s.handles[p]; !ok {
			s.handles[p] = uuid.NewString()
			s.order = append(s.order, p)
		}
	}

	kept := s.order[:0]
	for _, p := range s.order {
		if open[p] {
			kept = append(kept, p)
			continue
		}
		delete(s.handles, p)
		if s.current == p {
			s.current = nil
		}
	}
	s.order = kept
}

type playwrightElement struct {
	loc playwright.Locator
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(float64(elementTextTimeout.Milliseconds())),
	})
	return text, translate(err)
}

func (e *playwrightElement) Find(selector string) ([]Element, error) {
	return all(e.loc.Locator(selector))
}

func (e *playwrightElement) Click() error {
	return translate(e.loc.Click())
}

func all(loc playwright.Locator) ([]Element, error) {
	locs, err := loc.All()
	if err != nil {
		return nil, translate(err)
	}
	elems := make([]Element, 0, len(locs))
	for _, l := range locs {
		elems = append(elems, &playwrightElement{loc: l})
	}
	return elems, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
