package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const sniffSize = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a CSV roster with a header row. Spreadsheets saved under a
// Spanish locale separate with ';', so the delimiter is sniffed from the
// header unless fixed with WithDelimiter. Headers go through NormalizeHeader,
// making "Contraseña" and "contrasena" the same column.
type Parser struct {
	comma   rune
	headers []string
	index   map[string]int // normalized header to first column carrying it
	line    int
	csv     *csv.Reader
}

type ParserOption func(*Parser)

func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) { p.comma = d }
}

// NewParser consumes the header row of r. Empty input, input that is not
// UTF-8 and a blank header are rejected.
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	p := &Parser{index: map[string]int{}}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReaderSize(r, sniffSize)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	sample, err := br.Peek(sniffSize)
	switch {
	case err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull):
		return nil, fmt.Errorf("read file: %w", err)
	case len(bytes.TrimSpace(sample)) == 0:
		return nil, ErrEmptyFile
	case !utf8.Valid(trimPartialRune(sample)):
		return nil, ErrInvalidEncoding
	}
	if p.comma == 0 {
		p.comma = sniffDelimiter(sample)
	}

	p.csv = csv.NewReader(br)
	p.csv.Comma = p.comma
	p.csv.LazyQuotes = true
	p.csv.TrimLeadingSpace = true
	p.csv.FieldsPerRecord = -1

	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// sniffDelimiter picks ';' when the first line has more of them than commas.
func sniffDelimiter(sample []byte) rune {
	first, _, _ := bytes.Cut(sample, []byte{'\n'})
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		return ';'
	}
	return ','
}

// trimPartialRune drops a multi-byte rune cut off by the end of a peek.
func trimPartialRune(b []byte) []byte {
	for range utf8.UTFMax {
		if len(b) == 0 {
			break
		}
		if r, _ := utf8.DecodeLastRune(b); r != utf8.RuneError {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

func (p *Parser) readHeader() error {
	record, err := p.csv.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for col, raw := range record {
		name := NormalizeHeader(raw)
		p.headers = append(p.headers, name)
		if _, seen := p.index[name]; name != "" && !seen {
			p.index[name] = col
		}
	}
	if len(p.index) == 0 {
		return ErrMissingHeader
	}
	p.line = 1
	return nil
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader trims, lower-cases and strips accents.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if folded, _, err := transform.String(foldAccents, h); err == nil {
		return folded
	}
	return h
}

func (p *Parser) Headers() []string { return p.headers }

func (p *Parser) Delimiter() rune { return p.comma }

func (p *Parser) HasHeader(name string) bool {
	_, ok := p.index[name]
	return ok
}

// MissingHeaders lists the required headers absent from the file.
func (p *Parser) MissingHeaders(required ...string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row holds trimmed values keyed by normalized header. Line is 1-based and
// counts the header.
type Row struct {
	Line int
	Data map[string]string
}

func (r *Row) Get(header string) string { return r.Data[header] }

func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next row, or io.EOF. Short records are padded with
// empty values.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", p.line, err)
	}

	row := &Row{Line: p.line, Data: make(map[string]string, len(p.index))}
	for name, col := range p.index {
		var v string
		if col < len(record) {
			v = strings.TrimSpace(record[col])
		}
		row.Data[name] = v
	}
	return row, nil
}

// ReadAllRows drains the parser, skipping blank rows.
func (p *Parser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		switch {
		case errors.Is(err, io.EOF):
			return rows, nil
		case err != nil:
			return rows, err
		case !row.IsEmpty():
			rows = append(rows, row)
		}
	}
}
