package csvimport

import (
	"io"
	"strconv"
	"strings"

	"github.com/disciplinario/backend/internal/domain/identity"
)

// Roster column names after header normalization
const (
	ColumnEmail    = "email"
	ColumnName     = "nombre"
	ColumnRole     = "rol"
	ColumnPassword = "contrasena"
)

// RosterEntry is one account to provision
type RosterEntry struct {
	Line        int
	Email       string
	DisplayName string
	Role        string
	Password    string
}

// ParseRoster reads a user roster with columns email, nombre, rol and
// contraseña. nombre and rol may be blank. Structural problems (missing
// columns, unreadable file) are returned as error; per-row problems are
// collected and the offending rows skipped.
func ParseRoster(r io.Reader, maxErrors int) ([]RosterEntry, *ErrorCollection, error) {
	p, err := NewParser(r)
	if err != nil {
		return nil, nil, err
	}
	if missing := p.MissingHeaders(ColumnEmail, ColumnPassword); len(missing) > 0 {
		return nil, nil, &MissingColumnsError{Columns: missing}
	}

	errs := NewErrorCollection(maxErrors)
	seen := make(map[string]int)
	var entries []RosterEntry

	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs.Add(RowError{Row: p.line, Code: ErrCodeMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}

		entry := RosterEntry{
			Line:        row.Line,
			Email:       strings.ToLower(row.Get(ColumnEmail)),
			DisplayName: row.Get(ColumnName),
			Role:        strings.ToLower(row.Get(ColumnRole)),
			Password:    row.Get(ColumnPassword),
		}

		valid := true
		if entry.Email == "" {
			errs.AddRequired(row.Line, ColumnEmail)
			valid = false
		}
		if entry.Password == "" {
			errs.AddRequired(row.Line, ColumnPassword)
			valid = false
		}
		if entry.Role != "" && !identity.Role(entry.Role).IsValid() {
			errs.Add(RowError{
				Row:     row.Line,
				Column:  ColumnRole,
				Code:    ErrCodeInvalidValue,
				Message: "unknown role " + strconv.Quote(entry.Role),
			})
			valid = false
		}
		if first, dup := seen[entry.Email]; dup && entry.Email != "" {
			errs.Add(RowError{
				Row:     row.Line,
				Column:  ColumnEmail,
				Code:    ErrCodeDuplicateInFile,
				Message: "email already listed on row " + strconv.Itoa(first),
			})
			valid = false
		}
		if !valid {
			continue
		}

		seen[entry.Email] = row.Line
		entries = append(entries, entry)
	}

	return entries, errs, nil
}
