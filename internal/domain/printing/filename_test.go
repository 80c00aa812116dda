package printing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name       string
		workerName string
		expected   string
	}{
		{"accented letter becomes one underscore", "Juan Pérez", "Solicitud_Juan_P_rez.pdf"},
		{"plain ascii", "Ana", "Solicitud_Ana.pdf"},
		{"empty name uses default", "", "Solicitud_documento.pdf"},
		{"consecutive separators are not collapsed", "María  José", "Solicitud_Mar_a__Jos_.pdf"},
		{"digits are kept", "Worker 42", "Solicitud_Worker_42.pdf"},
		{"punctuation", "O'Neil-Smith, Jr.", "Solicitud_O_Neil_Smith__Jr_.pdf"},
		{"path characters", "../etc/passwd", "Solicitud____etc_passwd.pdf"},
		{"whitespace only", "  ", "Solicitud___.pdf"},
		{"eñe", "Muñoz", "Solicitud_Mu_oz.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExportFileName(tt.workerName))
		})
	}
}
