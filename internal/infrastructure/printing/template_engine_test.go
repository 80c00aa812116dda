package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(t *testing.T) *disciplinary.Request {
	t.Helper()
	r, err := disciplinary.NewRequest(
		disciplinary.Requester{Name: "Laura Gómez", Title: "Coordinadora", RequestDate: "2026-03-05"},
		disciplinary.Worker{
			Name:       "Juan Pérez",
			NationalID: "1020304050",
			JobTitle:   "Auxiliar",
			Area:       "Logística",
			Supervisor: "Carlos Ruiz",
		},
		disciplinary.Incident{
			Dates:       "01/03/2026",
			Location:    "Bodega 2",
			Description: "Llegó tarde\nSin justificación",
		},
		"ana@example.com",
	)
	require.NoError(t, err)
	return r
}

func render(t *testing.T, e *TemplateEngine, r *disciplinary.Request, at time.Time) string {
	t.Helper()
	html, err := e.RenderRequest(context.Background(), r, at)
	require.NoError(t, err)
	return html
}

var generatedAt = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func TestNewTemplateEngine(t *testing.T) {
	engine := NewTemplateEngine()
	assert.NotNil(t, engine)
	funcMap := engine.GetFuncMap()
	assert.NotNil(t, funcMap["upper"])
	assert.NotNil(t, funcMap["lines"])
	assert.NotNil(t, funcMap["default"])
}

func TestTemplateEngine_RenderRequest_Sections(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	html := render(t, engine, newTestRequest(t), generatedAt)

	assert.Contains(t, html, `id="plantillaPDF"`)
	assert.Contains(t, html, "width:210mm;min-height:297mm;padding:10mm")
	assert.Contains(t, html, "FT-TH-024")

	sections := []string{
		"DATOS DEL SOLICITANTE",
		"1. DATOS DEL TRABAJADOR",
		"2. DESCRIPCIÓN DE LOS HECHOS",
		"3. ANEXOS",
		"4. REVISIÓN",
		"5. FIRMAS",
		"Generado el",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(html, s)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}

	assert.Contains(t, html, "Juan Pérez")
	assert.Contains(t, html, "1020304050")
	assert.Contains(t, html, "Llegó tarde<br>Sin justificación")
	assert.Contains(t, html, "Fecha de solicitud:</td><td>05/03/2026</td>")
	assert.Contains(t, html, "Fecha: 05/03/2026")
	assert.Contains(t, html, "Nombre: Carlos Ruiz")
	assert.Contains(t, html, "Generado el 17/10/2026 09:30:00 por ana@example.com")
}

func TestTemplateEngine_RenderRequest_Placeholders(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	html := render(t, engine, newTestRequest(t), generatedAt)

	assert.Contains(t, html, "No se adjuntaron anexos")
	assert.Contains(t, html, "Pendiente de revisión")
	assert.Contains(t, html, "No aplica")
	assert.Contains(t, html, "<td>PENDIENTE</td>")
	assert.NotContains(t, html, "SANCIÓN IMPUESTA")
	assert.NotContains(t, html, "Revisor:")
}

func TestTemplateEngine_RenderRequest_EscapesText(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	r := newTestRequest(t)
	r.Worker.Name = `<script>alert("x")</script> O'Brien & Co`
	r.Incident.AdditionalInfo = "<b>nota</b>\nsegunda"

	html := render(t, engine, r, generatedAt)

	assert.NotContains(t, html, "<script>")
	assert.NotContains(t, html, "<b>nota</b>")
	assert.Contains(t, html, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; O&#39;Brien &amp; Co")
	assert.Contains(t, html, "&lt;b&gt;nota&lt;/b&gt;<br>segunda")
}

func TestTemplateEngine_RenderRequest_Attachments(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	r := newTestRequest(t)

	link, err := disciplinary.NewLinkAttachment("https://example.com/docs/acta", generatedAt)
	require.NoError(t, err)
	require.NoError(t, r.AppendAttachments(
		disciplinary.NewFileAttachment("foto.png", "image/png", 1024,
			"https://cdn.example.com/solicitud_1/foto.png", "solicitud_1/foto.png", generatedAt),
		disciplinary.NewFileAttachment("informe.pdf", "application/pdf", 2048,
			"https://cdn.example.com/solicitud_1/informe.pdf", "solicitud_1/informe.pdf", generatedAt),
		link,
	))

	html := render(t, engine, r, generatedAt)

	assert.NotContains(t, html, "No se adjuntaron anexos")
	assert.Contains(t, html, `<img class="thumb" src="https://cdn.example.com/solicitud_1/foto.png" alt="foto.png">`)
	assert.Contains(t, html, `<a href="https://cdn.example.com/solicitud_1/informe.pdf" target="_blank">informe.pdf</a>`)
	assert.Contains(t, html, `<span class="marker link"></span> <a href="https://example.com/docs/acta" target="_blank">acta</a>`)
	assert.Equal(t, 1, strings.Count(html, "<img "))
}

func TestTemplateEngine_RenderRequest_UnsafeURL(t *testing.T) {
	engine := NewTemplateEngine()
	r := newTestRequest(t)
	link, err := disciplinary.NewLinkAttachment("javascript:alert(1)", generatedAt)
	require.NoError(t, err)
	require.NoError(t, r.AppendAttachments(link))

	html := render(t, engine, r, generatedAt)

	assert.NotContains(t, html, `href="javascript:`)
	assert.Contains(t, html, "#ZgotmplZ")
}

func TestTemplateEngine_RenderRequest_Review(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	r := newTestRequest(t)
	decided := time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)
	require.NoError(t, r.ApplyReview("  ", disciplinary.DecisionApproved, "revisor@example.com", decided))

	html := render(t, engine, r, generatedAt)

	assert.NotContains(t, html, "Pendiente de revisión")
	assert.Contains(t, html, "<td>APROBADO</td>")
	assert.Contains(t, html, "Revisor:</td><td>revisor@example.com</td>")
	assert.Contains(t, html, "Comentario:</td><td>Sin comentarios</td>")
	assert.Contains(t, html, "Fecha revisión:</td><td>10/03/2026 14:05</td>")
}

func TestTemplateEngine_RenderRequest_Sanction(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	r := newTestRequest(t)
	imposed := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	require.NoError(t, r.ImposeSanction("Suspensión", "Tres días\nsin salario", "", "", "admin@example.com", imposed))

	html := render(t, engine, r, generatedAt)

	assert.Contains(t, html, "6. SANCIÓN IMPUESTA")
	assert.Contains(t, html, "<td>SANCIONADO</td>")
	assert.Contains(t, html, "Tipo de sanción:</td><td>Suspensión</td>")
	assert.Contains(t, html, "Tres días<br>sin salario")
	assert.Equal(t, 2, strings.Count(html, "No especificada"))
	assert.Contains(t, html, "admin@example.com el 12/03/2026 08:00")
	assert.Less(t, strings.Index(html, "5. FIRMAS"), strings.Index(html, "6. SANCIÓN IMPUESTA"))
	assert.Less(t, strings.Index(html, "6. SANCIÓN IMPUESTA"), strings.Index(html, "Generado el"))
}

func TestTemplateEngine_RenderRequest_Dates(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))

	tests := []struct {
		raw      string
		expected string
	}{
		{"2026-03-05", "05/03/2026"},
		{"2026-03-05T10:00:00Z", "05/03/2026"},
		{"ayer por la tarde", "ayer por la tarde"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.formatDate(tt.raw))
		})
	}
	assert.Equal(t, "", engine.formatTime(time.Time{}))
}

func TestTemplateEngine_RenderRequest_DependsOnlyOnRecordAndTime(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	r := newTestRequest(t)

	first := render(t, engine, r, generatedAt)
	second := render(t, engine, r, generatedAt.Add(90*time.Minute))
	again := render(t, engine, r, generatedAt)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, second)
	assert.Equal(t, stripFooter(first), stripFooter(second))
}

func TestTemplateEngine_RenderRequest_CreatorFallback(t *testing.T) {
	engine := NewTemplateEngine(WithLocation(time.UTC))
	r := newTestRequest(t)
	r.CreatedBy = ""

	html := render(t, engine, r, generatedAt)
	assert.Contains(t, html, "por sistema")
}

func TestTemplateEngine_RenderRequest_Errors(t *testing.T) {
	engine := NewTemplateEngine()

	_, err := engine.RenderRequest(context.Background(), nil, generatedAt)
	require.Error(t, err)
	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.RenderRequest(ctx, newTestRequest(t), generatedAt)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTemplateFunctions(t *testing.T) {
	assert.Equal(t, "SANCIÓN", spanishUpper("sanción"))
	assert.Equal(t, []string{"a", "b", ""}, splitLines("a\r\nb\n"))
	assert.Equal(t, "fallback", defaultText("fallback", "   "))
	assert.Equal(t, "valor", defaultText("fallback", "valor"))
}

func stripFooter(html string) string {
	idx := strings.Index(html, "Generado el")
	if idx < 0 {
		return html
	}
	end := strings.Index(html[idx:], "</div>")
	return html[:idx] + html[idx+end:]
}
