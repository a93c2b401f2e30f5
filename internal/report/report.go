package report

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/usecase/portfolio"
)

//go:embed templates/*.md
var templates embed.FS

const missing = "n/a"

type summaryData struct {
	Summary     *portfolio.Summary
	Currency    string
	GeneratedAt time.Time
}

// SummaryMarkdown renders a portfolio summary as a markdown document
func SummaryMarkdown(s *portfolio.Summary, currency string, at time.Time) (string, error) {
	m := NewMoney(currency)
	partials := map[string]string{
		"summary_totals":   "templates/summary_totals.md",
		"summary_holdings": "templates/summary_holdings.md",
		"summary_realized": "templates/summary_realized.md",
	}
	data := summaryData{Summary: s, Currency: m.Code(), GeneratedAt: at}
	return renderTemplate("summary", "templates/summary.md", partials, funcs(m), data)
}

// Terminal renders markdown for a terminal. Plain output keeps the markdown unstyled.
func Terminal(md string, plain bool) (string, error) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(120))
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render(md)
}

func funcs(m Money) template.FuncMap {
	optional := func(f func(decimal.Decimal) string) func(*decimal.Decimal) string {
		return func(d *decimal.Decimal) string {
			if d == nil {
				return missing
			}
			return f(*d)
		}
	}
	percent := func(d decimal.Decimal) string {
		s := d.StringFixed(2) + "%"
		if d.IsPositive() {
			return "+" + s
		}
		return s
	}
	return template.FuncMap{
		"money":   m.Format,
		"moneyp":  optional(m.Format),
		"signed":  m.Signed,
		"signedp": optional(m.Signed),
		"pct":     optional(percent),
		"pctv":    percent,
		"date":    func(t time.Time) string { return t.Format(domain.DateLayout) },
		"trend": func(t portfolio.Trend) string {
			switch t {
			case portfolio.TrendUp:
				return "▲"
			case portfolio.TrendDown:
				return "▼"
			case portfolio.TrendFlat:
				return "="
			}
			return ""
		},
	}
}

func renderTemplate(name, mainFile string, partials map[string]string, fm template.FuncMap, data any) (string, error) {
	content, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return "", fmt.Errorf("error reading template %q: %w", mainFile, err)
	}

	tmpl, err := template.New(name).Funcs(fm).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("error parsing template %q: %w", mainFile, err)
	}

	for alias, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return "", fmt.Errorf("error reading partial %q: %w", file, err)
		}
		if _, err := tmpl.New(alias).Parse(string(content)); err != nil {
			return "", fmt.Errorf("error parsing partial %q: %w", file, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", name, err)
	}
	return b.String(), nil
}
