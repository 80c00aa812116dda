package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ErrCodeRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidValue    = "ERR_IMPORT_INVALID_VALUE"
	ErrCodeDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeMalformedRow    = "ERR_IMPORT_MALFORMED_ROW"
)

const defaultMaxRowErrors = 100

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

// MissingColumnsError names the required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// RowError points at a single offending row, and a column when known.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	where := fmt.Sprintf("row %d", e.Row)
	if e.Column != "" {
		where += fmt.Sprintf(", column '%s'", e.Column)
	}
	return where + ": " + e.Message
}

// ErrorCollection keeps the first N row errors and only counts the overflow.
type ErrorCollection struct {
	kept    []RowError
	limit   int
	dropped int
}

// NewErrorCollection caps the kept errors at limit, or 100 if limit <= 0.
func NewErrorCollection(limit int) *ErrorCollection {
	if limit <= 0 {
		limit = defaultMaxRowErrors
	}
	return &ErrorCollection{limit: limit}
}

func (ec *ErrorCollection) Add(err RowError) {
	if len(ec.kept) >= ec.limit {
		ec.dropped++
		return
	}
	ec.kept = append(ec.kept, err)
}

// AddRequired records an empty mandatory column.
func (ec *ErrorCollection) AddRequired(row int, column string) {
	ec.Add(RowError{
		Row:     row,
		Column:  column,
		Code:    ErrCodeRequiredField,
		Message: column + " is required",
	})
}

func (ec *ErrorCollection) Errors() []RowError { return ec.kept }
func (ec *ErrorCollection) Count() int         { return len(ec.kept) }
func (ec *ErrorCollection) TotalCount() int    { return len(ec.kept) + ec.dropped }
func (ec *ErrorCollection) HasErrors() bool    { return ec.TotalCount() > 0 }
func (ec *ErrorCollection) IsTruncated() bool  { return ec.dropped > 0 }

// String lists kept errors one per line, then a summary of the overflow.
func (ec *ErrorCollection) String() string {
	lines := make([]string, 0, len(ec.kept)+1)
	for _, e := range ec.kept {
		lines = append(lines, e.Error())
	}
	if ec.dropped > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", ec.dropped))
	}
	return strings.Join(lines, "\n")
}
