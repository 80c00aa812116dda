package disciplinary

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBlobPath(t *testing.T) {
	id := uuid.MustParse("6f1c2a4e-0000-4000-8000-000000000001")
	at := time.UnixMilli(1760693400123)

	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{"simple", "acta.pdf", "solicitud_6f1c2a4e-0000-4000-8000-000000000001/1760693400123_abcd1234_acta.pdf"},
		{"accents and spaces", "Foto del daño.JPG", "solicitud_6f1c2a4e-0000-4000-8000-000000000001/1760693400123_abcd1234_Foto_del_da_o.JPG"},
		{"only last extension", "informe.final.docx", "solicitud_6f1c2a4e-0000-4000-8000-000000000001/1760693400123_abcd1234_informe_final.docx"},
		{"no extension", "README", "solicitud_6f1c2a4e-0000-4000-8000-000000000001/1760693400123_abcd1234_README.README"},
		{
			"long name truncated",
			strings.Repeat("x", 40) + ".png",
			"solicitud_6f1c2a4e-0000-4000-8000-000000000001/1760693400123_abcd1234_" + strings.Repeat("x", 30) + ".png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BlobPath(id, tt.fileName, at, "abcd1234"))
		})
	}
}

func TestRandomSuffix(t *testing.T) {
	s := RandomSuffix(8)
	assert.Len(t, s, 8)
	for _, r := range s {
		assert.Contains(t, base36Alphabet, string(r))
	}
}
