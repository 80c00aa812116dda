package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" Contraseña ", "contrasena"},
		{"ROL", "rol"},
		{"Área", "area"},
		{"email", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.in))
		})
	}
}

func TestNewParser(t *testing.T) {
	t.Run("detects semicolon and strips BOM", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBFEmail;Contraseña\na@empresa.com;x\n"))
		require.NoError(t, err)

		assert.Equal(t, ';', p.Delimiter())
		assert.Equal(t, []string{"email", "contrasena"}, p.Headers())
		assert.Empty(t, p.MissingHeaders("email", "contrasena"))
	})

	t.Run("defaults to comma", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("email,nombre\n"))
		require.NoError(t, err)
		assert.Equal(t, ',', p.Delimiter())
	})

	t.Run("explicit delimiter", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("email|nombre\na@b.com|Ana\n"), WithDelimiter('|'))
		require.NoError(t, err)

		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Ana", row.Get("nombre"))
		assert.Equal(t, 2, row.Line)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)

		_, err = NewParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)

		_, err = NewParser(strings.NewReader("email,nombre\n\xff\xfe,x\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})
}

func TestParser_ReadAllRows(t *testing.T) {
	p, err := NewParser(strings.NewReader("email,nombre\n a@b.com , Ana \n,\nc@d.com\n"))
	require.NoError(t, err)

	rows, err := p.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank rows are skipped")

	assert.Equal(t, "a@b.com", rows[0].Get("email"))
	assert.Equal(t, "Ana", rows[0].Get("nombre"))
	assert.Equal(t, "", rows[1].Get("nombre"), "short rows are padded")

	_, err = p.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection(2)
	assert.False(t, ec.HasErrors())

	ec.AddRequired(2, "email")
	ec.Add(RowError{Row: 3, Code: ErrCodeMalformedRow, Message: "bad quotes"})
	ec.AddRequired(4, "contrasena")

	assert.True(t, ec.HasErrors())
	assert.Equal(t, 2, ec.Count())
	assert.Equal(t, 3, ec.TotalCount())
	assert.True(t, ec.IsTruncated())
	assert.Equal(t, "row 2, column 'email': email is required\nrow 3: bad quotes\n... and 1 more", ec.String())
}
