// Package render is a small html/template engine satisfying fiber.Views.
// Templates are embedded so a deployed worker bundle has no filesystem
// dependency on the template tree.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/vitrin/vitrin/internal/storefront"
)

//go:embed templates/*.html
var templateFS embed.FS

// Engine implements the fiber.Views interface over html/template. Each
// page template is parsed together with the shared layout.
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

// NewEngine returns an unloaded engine; fiber calls Load during app
// initialization.
func NewEngine() *Engine {
	return &Engine{}
}

var funcs = template.FuncMap{
	"money":    FormatMoney,
	"raw":      func(s string) template.HTML { return template.HTML(s) },
	"subtract": func(a, b int) int { return a - b },
}

// Load parses every page template against the shared layout.
func (e *Engine) Load() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read embedded templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".html")
		if name == "layout" {
			continue
		}
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+entry.Name())
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
		pages[name] = tmpl
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render writes the named page. The variadic layout override fiber allows
// is unused here; the layout is fixed.
func (e *Engine) Render(w io.Writer, name string, bind interface{}, _ ...string) error {
	e.mu.RLock()
	tmpl, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	if err := tmpl.ExecuteTemplate(w, "layout.html", bind); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// FormatMoney renders a Money value like "$24.00" / "24.00 PLN". Only a
// handful of symbol currencies are special-cased; everything else is
// "amount CODE".
func FormatMoney(m storefront.Money) string {
	amount := m.Amount
	if f, err := strconv.ParseFloat(m.Amount, 64); err == nil {
		amount = strconv.FormatFloat(f, 'f', 2, 64)
	}
	switch m.CurrencyCode {
	case "USD", "CAD", "AUD":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	case "JPY":
		return "¥" + strings.TrimSuffix(amount, ".00")
	default:
		if m.CurrencyCode == "" {
			return amount
		}
		return amount + " " + m.CurrencyCode
	}
}
