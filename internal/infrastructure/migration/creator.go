package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var stubTemplate = template.Must(template.New("stub").Parse(
	`-- Migration: {{.File.Name}}{{if .Down}} (Rollback){{end}}
-- Created: {{.File.Timestamp}}
-- Description: {{if .Down}}Rollback for {{end}}{{.File.Description}}

-- Write your {{if .Down}}DOWN{{else}}UP{{end}} migration SQL here

`))

// versionWidth matches the zero-padded prefix of the shipped migrations.
const versionWidth = 6

// MigrationFile describes a freshly created up/down pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next numbered up/down stub pair into dir,
// creating dir when needed. Existing files are never overwritten.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}
	existing, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	version := fmt.Sprintf("%0*d", versionWidth, NextVersion(existing))
	base := filepath.Join(dir, version+"_"+sanitizeName(name))
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		UpPath:      base + ".up.sql",
		DownPath:    base + ".down.sql",
	}

	if err := writeStub(mf.UpPath, mf, false); err != nil {
		return nil, err
	}
	if err := writeStub(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeStub(path string, mf *MigrationFile, down bool) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	data := struct {
		File *MigrationFile
		Down bool
	}{mf, down}
	if err := stubTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return nil
}

// NextVersion is one past the highest numeric prefix among names.
func NextVersion(names []string) int {
	next := 1
	for _, name := range names {
		prefix, _, _ := strings.Cut(name, "_")
		if n, err := strconv.Atoi(prefix); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// sanitizeName lowercases name, turns spaces, dashes and underscores into
// single underscores and drops everything else.
func sanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		case r == ' ', r == '-', r == '_':
			return ' '
		}
		return -1
	}, name)
	return strings.Join(strings.Fields(cleaned), "_")
}

// ListMigrations returns the sorted base names of the *.up.sql files at the
// root of fsys. A missing directory is an empty list.
func ListMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok && base != "" {
			names = append(names, base)
		}
	}
	slices.Sort(names)
	return names, nil
}
