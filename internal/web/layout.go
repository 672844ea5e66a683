// layout.go - Dashboard page composition
package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/mms-viewer/backend/internal/chart"
	"github.com/mms-viewer/backend/internal/models"
)

// DefaultTitle heads the dashboard page.
const DefaultTitle = "MMS Viewer"

// Panel is one event section of the page: a range header, the file list and a chart.
type Panel struct {
	// ID links the panel to its event endpoints. Optional.
	ID        string
	Label     string
	FileNames string
	Chart     *chart.Chart
}

// Page is a titled vertical stack of panels.
type Page struct {
	Title     string
	Panels    []Panel
	ScriptURL string
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"chartID": chartID,
	"options": func(p Panel, i int) template.JS {
		if p.Chart == nil {
			return "{}"
		}
		return p.Chart.Options(chartID(i))
	},
}).ParseFS(files, "templates/*.html"))

func chartID(i int) string {
	return fmt.Sprintf("chart_%d", i)
}

// CreateEvent builds the panel for a time range, the files found for it and its chart.
// File names are joined by newlines in listing order.
func CreateEvent(r models.TimeRange, files []models.FileRecord, c *chart.Chart) Panel {
	return Panel{
		Label:     r.String(),
		FileNames: strings.Join(models.FileNames(files), "\n"),
		Chart:     c,
	}
}

// SimpleLayout stacks the panels under a centered title.
func SimpleLayout(title string, panels ...Panel) *Page {
	return &Page{
		Title:     title,
		Panels:    panels,
		ScriptURL: chart.ScriptURL,
	}
}

// Render writes the complete HTML document.
func (p *Page) Render(w io.Writer) error {
	if err := pageTemplate.ExecuteTemplate(w, "dashboard", p); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}
