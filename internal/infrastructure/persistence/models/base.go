package models

import (
	"time"

	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel holds the columns every aggregate table shares. Version
// backs the optimistic lock checked on save.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null"`
}

// FromDomainAggregateRoot copies identity, timestamps and version from a
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	*m = AggregateModel{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt, Version: a.Version}
}

// ToDomainAggregateRoot rebuilds the root with no pending events
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}
