package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderBy(t *testing.T) {
	tests := []struct {
		field, dir string
		wantCol    string
		wantDesc   bool
	}{
		{"", "", "created_at", true},
		{"worker_name", "asc", "worker_name", false},
		{"  status ", " ASC ", "status", false},
		{"worker_area", "desc", "worker_area", true},
		{"STATUS", "asc", "created_at", false},
		{"worker_national_id", "asc", "created_at", false},
		{"status", "sideways", "status", true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.dir, func(t *testing.T) {
			got := orderBy(tt.field, tt.dir, requestSortColumns, "created_at")
			assert.Equal(t, tt.wantCol, got.Column.Name)
			assert.Equal(t, tt.wantDesc, got.Desc)
		})
	}
}

func TestOrderBy_RejectsInjectedSQL(t *testing.T) {
	payloads := []string{
		"worker_name; DROP TABLE disciplinary_requests;--",
		"status' OR '1'='1",
		`id"; DROP TABLE users;--`,
		"created_at UNION SELECT password_hash FROM users",
		"CASE WHEN 1=1 THEN worker_name ELSE status END",
		"status\n; DROP TABLE users",
	}

	for _, p := range payloads {
		got := orderBy(p, p, requestSortColumns, "created_at")
		assert.Equal(t, "created_at", got.Column.Name, p)
		assert.True(t, got.Desc, p)
	}
}
