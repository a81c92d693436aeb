// Package browsertest provides an in-memory browser.Session for tests.
// Pages are maps from selector strings to nodes, so a selector matches
// exactly when the same string was registered.
package browsertest

import (
	"fmt"
	"time"

	"planos_scrooper/browser"
)

type Node struct {
	Text     string
	Children map[string][]*Node
	OnClick  func()
}

func NewNode(text string) *Node {
	return &Node{Text: text, Children: make(map[string][]*Node)}
}

// Add appends children under selector and returns n.
func (n *Node) Add(selector string, children ...*Node) *Node {
	n.Children[selector] = append(n.Children[selector], children...)
	return n
}

type Page struct {
	URL   string
	HTML  string
	Nodes map[string][]*Node
}

func NewPage(url string) *Page {
	return &Page{URL: url, Nodes: make(map[string][]*Node)}
}

func (p *Page) Add(selector string, nodes ...*Node) *Page {
	p.Nodes[selector] = append(p.Nodes[selector], nodes...)
	return p
}

// ClickRecord is one Session.Click call and the window count at that time.
type ClickRecord struct {
	Selector string
	Windows  int
}

type window struct {
	handle string
	page   *Page
}

var _ browser.Session = (*Session)(nil)

type Session struct {
	Pages  map[string]*Page
	Clicks []ClickRecord
	Closed bool

	actions map[string]func()
	windows []*window
	current *window
	next    int
}

// NewSession returns a session with one blank window.
func NewSession() *Session {
	s := &Session{
		Pages:   make(map[string]*Page),
		actions: make(map[string]func()),
	}
	s.current = s.open(NewPage("about:blank"))
	return s
}

func (s *Session) AddPage(p *Page) *Page {
	s.Pages[p.URL] = p
	return p
}

// OnClick registers fn to run when selector is clicked via Session.Click.
func (s *Session) OnClick(selector string, fn func()) {
	s.actions[selector] = fn
}

// OpenWindow opens url in a new window without focusing it, the way a
// target=_blank link does.
func (s *Session) OpenWindow(url string) {
	s.open(s.page(url))
}

func (s *Session) open(p *Page) *window {
	s.next++
	w := &window{handle: fmt.Sprintf("w%d", s.next), page: p}
	s.windows = append(s.windows, w)
	return w
}

func (s *Session) page(url string) *Page {
	if p, ok := s.Pages[url]; ok {
		return p
	}
	return NewPage(url)
}

func (s *Session) Navigate(url string) error {
	if s.current == nil {
		return browser.ErrNoWindow
	}
	s.current.page = s.page(url)
	return nil
}

func (s *Session) CurrentURL() string {
	if s.current == nil {
		return ""
	}
	return s.current.page.URL
}

func (s *Session) WaitFor(selector string, timeout time.Duration) error {
	if s.current == nil {
		return browser.ErrNoWindow
	}
	if len(s.current.page.Nodes[selector]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (s *Session) Find(selector string) ([]browser.Element, error) {
	if s.current == nil {
		return nil, browser.ErrNoWindow
	}
	return elements(s.current.page.Nodes[selector]), nil
}

func (s *Session) Click(selector string, timeout time.Duration) error {
	s.Clicks = append(s.Clicks, ClickRecord{Selector: selector, Windows: len(s.windows)})
	if s.current == nil {
		return browser.ErrNoWindow
	}
	if fn, ok := s.actions[selector]; ok {
		fn()
		return nil
	}
	nodes := s.current.page.Nodes[selector]
	if len(nodes) == 0 {
		return fmt.Errorf("%w: clickable %s", browser.ErrTimeout, selector)
	}
	return (&element{node: nodes[0]}).Click()
}

func (s *Session) Content() (string, error) {
	if s.current == nil {
		return "", browser.ErrNoWindow
	}
	return s.current.page.HTML, nil
}

func (s *Session) WaitForWindows(n int, timeout time.Duration) error {
	if len(s.windows) != n {
		return fmt.Errorf("%w: %d windows", browser.ErrTimeout, n)
	}
	return nil
}

func (s *Session) Windows() []string {
	handles := make([]string, 0, len(s.windows))
	for _, w := range s.windows {
		handles = append(handles, w.handle)
	}
	return handles
}

func (s *Session) CurrentWindow() string {
	if s.current == nil {
		return ""
	}
	return s.current.handle
}

func (s *Session) SwitchTo(handle string) error {
	for _, w := range s.windows {
		if w.handle == handle {
			s.current = w
			return nil
		}
	}
	return fmt.Errorf("%w: %s", browser.ErrNoWindow, handle)
}

func (s *Session) CloseWindow() error {
	if s.current == nil {
		return browser.ErrNoWindow
	}
	for i, w := range s.windows {
		if w == s.current {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			break
		}
	}
	s.current = nil
	return nil
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

type element struct {
	node *Node
}

func (e *element) Text() (string, error) {
	return e.node.Text, nil
}

func (e *element) Find(selector string) ([]browser.Element, error) {
	return elements(e.node.Children[selector]), nil
}

func (e *element) Click() error {
	if e.node.OnClick != nil {
		e.node.OnClick()
	}
	return nil
}

func elements(nodes []*Node) []browser.Element {
	elems := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, &element{node: n})
	}
	return elems
}
