package printing

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/printing"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

const requestTemplateName = "disciplinary_request"

// Date layouts shown on the printed page
const (
	pageDateLayout     = "02/01/2006"
	pageDateTimeLayout = "02/01/2006 15:04"
	footerLayout       = "02/01/2006 15:04:05"
)

// inputLayouts are the stored date formats recognized when reformatting
// free-text dates. Anything else is printed as entered.
var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TemplateEngine renders a disciplinary request into the markup of one
// printable page. Rendering is a pure function of the request and the
// generation time.
type TemplateEngine struct {
	tmpl     *template.Template
	funcMap  template.FuncMap
	location *time.Location
	geometry printing.PageGeometry
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocation sets the time zone used to print dates
func WithLocation(loc *time.Location) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithPageGeometry sets the physical page the container is sized to
func WithPageGeometry(g printing.PageGeometry) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.geometry = g
	}
}

// NewTemplateEngine creates a template engine with the embedded page template
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{
		location: time.Local,
		geometry: printing.A4Portrait(),
	}

	e.funcMap = template.FuncMap{
		"upper":   spanishUpper,
		"lines":   splitLines,
		"default": defaultText,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.tmpl = template.Must(template.New("page").
		Funcs(e.funcMap).
		ParseFS(templateFS, "templates/disciplinary_request.html"))

	return e
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// RenderRequest fills the page template with the request. All record text is
// HTML-escaped; only the template's own markup is emitted unescaped.
func (e *TemplateEngine) RenderRequest(ctx context.Context, r *disciplinary.Request, generatedAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "render cancelled", err)
	}
	if r == nil {
		return "", NewRenderError(ErrCodeRenderFailed, "request is nil", nil)
	}

	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, requestTemplateName, e.newRequestView(r, generatedAt)); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// pageView sizes the page container
type pageView struct {
	Width   string
	Height  string
	Padding string
}

type attachmentView struct {
	Name    string
	URL     string
	IsImage bool
	IsLink  bool
}

type reviewView struct {
	Reviewer string
	Comment  string
	Date     string
}

type sanctionView struct {
	Type        string
	Description string
	StartDate   string
	EndDate     string
	ImposedBy   string
	ImposedAt   string
}

// requestView is the data bound to the page template
type requestView struct {
	Page        pageView
	Requester   disciplinary.Requester
	RequestDate string
	Worker      disciplinary.Worker
	Incident    disciplinary.Incident
	Attachments []attachmentView
	Status      string
	Review      *reviewView
	Sanction    *sanctionView
	CreatedBy   string
	GeneratedAt string
}

func (e *TemplateEngine) newRequestView(r *disciplinary.Request, generatedAt time.Time) requestView {
	width, height, padding := e.geometry.CSSSize()

	status := r.Status.String()
	if status == "" {
		status = disciplinary.StatusPending.String()
	}

	v := requestView{
		Page:        pageView{Width: width, Height: height, Padding: padding},
		Requester:   r.Requester,
		RequestDate: e.formatDate(r.Requester.RequestDate),
		Worker:      r.Worker,
		Incident:    r.Incident,
		Attachments: make([]attachmentView, 0, len(r.Attachments)),
		Status:      status,
		CreatedBy:   r.CreatedBy,
		GeneratedAt: generatedAt.In(e.location).Format(footerLayout),
	}

	for _, a := range r.Attachments {
		v.Attachments = append(v.Attachments, attachmentView{
			Name:    a.Name,
			URL:     a.URL,
			IsImage: a.IsImage(),
			IsLink:  a.Kind == disciplinary.AttachmentKindLink,
		})
	}

	if r.Review != nil {
		v.Review = &reviewView{
			Reviewer: r.Review.Reviewer,
			Comment:  strings.TrimSpace(r.Review.Comment),
			Date:     e.formatTime(r.Review.DecidedAt),
		}
	}

	if r.Sanction != nil {
		v.Sanction = &sanctionView{
			Type:        r.Sanction.Type,
			Description: r.Sanction.Description,
			StartDate:   r.Sanction.StartDate,
			EndDate:     r.Sanction.EndDate,
			ImposedBy:   r.Sanction.ImposedBy,
			ImposedAt:   e.formatTime(r.Sanction.ImposedAt),
		}
	}

	return v
}

// formatDate prints a stored date as dd/mm/yyyy, or the raw text when it
// cannot be parsed
func (e *TemplateEngine) formatDate(raw string) string {
	t, ok := e.parseDate(raw)
	if !ok {
		return raw
	}
	return t.Format(pageDateLayout)
}

func (e *TemplateEngine) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(e.location).Format(pageDateTimeLayout)
}

func (e *TemplateEngine) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, raw, e.location); err == nil {
			return t.In(e.location), true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// Template Functions
// =============================================================================

// spanishUpper upper-cases using Spanish rules
func spanishUpper(s string) string {
	return cases.Upper(language.Spanish).String(s)
}

// splitLines splits multi-line text so each line is escaped on its own and
// joined with <br> by the template
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

// defaultText returns fallback when value is blank
func defaultText(fallback, value string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
