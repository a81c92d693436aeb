package scraper

import (
	"errors"
	"testing"

	"planos_scrooper/browser/browsertest"
	"planos_scrooper/models"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"$1,234.56 / mes", 1234.56},
		{"$125,000", 125000},
		{"Desde $98,500.00", 98500},
		{"Precio a consultar", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ParsePrice(c.text); got != c.want {
			t.Fatalf("ParsePrice(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestApplyChip(t *testing.T) {
	var u models.Unit
	errs := ApplyChip(&u, "2 Habitaciones\n1 baño\n85 m2\n120 v2\nparqueo")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if u.Rooms != 2 || u.Bathrooms != 1 || u.AreaM2 != 85 || u.AreaV2 != 120 {
		t.Fatalf("unexpected unit %+v", u)
	}
}

func TestApplyChip_SkipsBadLine(t *testing.T) {
	var u models.Unit
	errs := ApplyChip(&u, "tres habitaciones\n2 baños\n1,050 m2")
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if !errors.Is(errs[0], ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", errs[0])
	}
	if u.Rooms != 0 {
		t.Fatalf("expected rooms untouched, got %v", u.Rooms)
	}
	if u.Bathrooms != 2 || u.AreaM2 != 1050 {
		t.Fatalf("expected remaining lines applied, got %+v", u)
	}
}

func TestApplyAttributeLine_SingularKeywords(t *testing.T) {
	var u models.Unit
	if err := ApplyAttributeLine(&u, "1 habitación"); err != nil {
		t.Fatalf("rooms: %v", err)
	}
	if err := ApplyAttributeLine(&u, "1 baño"); err != nil {
		t.Fatalf("bathrooms: %v", err)
	}
	if u.Rooms != 1 || u.Bathrooms != 1 {
		t.Fatalf("unexpected unit %+v", u)
	}
}

func unitRow(name, price, chip string) *browsertest.Node {
	row := browsertest.NewNode("").Add(UnitNameSelector, browsertest.NewNode(name))
	if price != "" {
		row.Add(UnitPriceSelector, browsertest.NewNode(price))
	}
	if chip != "" {
		row.Add(UnitChipSelector, browsertest.NewNode(chip))
	}
	return row
}

func detailWithUnits(url string, groups ...*browsertest.Node) *browsertest.Page {
	return browsertest.NewPage(url).
		Add(TitleSelector, browsertest.NewNode("Torre Norte")).
		Add(ChooseUnitSelector, browsertest.NewNode("Elegir unidad")).
		Add(UnitGroupSelector, groups...)
}

func TestExtractUnits(t *testing.T) {
	const url = "https://example.com/proyectos/torre-norte"
	group := browsertest.NewNode("").Add(UnitRowSelector,
		unitRow("Tipo A", "$1,234.56 / mes", "2 habitaciones\n1 baño\n85 m2\n120 v2"),
		unitRow("Tipo B", "Precio a consultar", "3 habitaciones"),
	)

	s := browsertest.NewSession()
	s.AddPage(detailWithUnits(url, group))
	if err := s.Navigate(url); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	units, err := NewParser(s, DefaultWaits()).ExtractUnits(url)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}

	a := units[0]
	if a.Name != "Tipo A" || a.Price != 1234.56 || a.Rooms != 2 || a.Bathrooms != 1 || a.AreaM2 != 85 || a.AreaV2 != 120 {
		t.Fatalf("unexpected first unit %+v", a)
	}
	b := units[1]
	if b.Name != "Tipo B" || b.Price != 0 || b.Rooms != 3 || b.Bathrooms != 0 || b.AreaM2 != 0 || b.AreaV2 != 0 {
		t.Fatalf("unexpected second unit %+v", b)
	}

	if len(s.Clicks) != 1 || s.Clicks[0].Selector != ChooseUnitSelector {
		t.Fatalf("expected one click on the unit selector, got %+v", s.Clicks)
	}
}

func TestExtractUnits_NoGroups(t *testing.T) {
	const url = "https://example.com/proyectos/vacio"
	s := browsertest.NewSession()
	s.AddPage(detailWithUnits(url))
	s.Navigate(url)

	units, err := NewParser(s, DefaultWaits()).ExtractUnits(url)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if units == nil || len(units) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", units)
	}
}

func TestExtractUnits_NoButton(t *testing.T) {
	const url = "https://example.com/proyectos/sin-boton"
	s := browsertest.NewSession()
	s.AddPage(browsertest.NewPage(url).Add(TitleSelector, browsertest.NewNode("Sin boton")))
	s.Navigate(url)

	units, err := NewParser(s, DefaultWaits()).ExtractUnits(url)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(units) != 0 {
		t.Fatalf("expected no units, got %d", len(units))
	}
}

func TestExtractUnits_SkipsRowWithoutName(t *testing.T) {
	const url = "https://example.com/proyectos/parcial"
	nameless := browsertest.NewNode("").Add(UnitPriceSelector, browsertest.NewNode("$10"))
	group := browsertest.NewNode("").Add(UnitRowSelector, nameless, unitRow("Tipo C", "$200,000", "tres habitaciones\n2 baños"))

	s := browsertest.NewSession()
	s.AddPage(detailWithUnits(url, group))
	s.Navigate(url)

	units, err := NewParser(s, DefaultWaits()).ExtractUnits(url)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if units[0].Name != "Tipo C" || units[0].Price != 200000 || units[0].Rooms != 0 || units[0].Bathrooms != 2 {
		t.Fatalf("unexpected unit %+v", units[0])
	}
}

func TestExtractUnits_NavigatesWhenElsewhere(t *testing.T) {
	const url = "https://example.com/proyectos/otra"
	s := browsertest.NewSession()
	s.AddPage(detailWithUnits(url, browsertest.NewNode("").Add(UnitRowSelector, unitRow("Tipo D", "$1", ""))))
	s.OpenWindow("https://example.com/leftover")

	units, err := NewParser(s, DefaultWaits()).ExtractUnits(url)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(units))
	}
	if got := len(s.Windows()); got != 1 {
		t.Fatalf("expected 1 window, got %d", got)
	}
	if s.CurrentURL() != url {
		t.Fatalf("expected current url %s, got %s", url, s.CurrentURL())
	}
}
