package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/reimburse/backend/internal/domain/shared"
)

// BaseModel carries the id and timestamps shared by uuid-keyed tables
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

// AggregateModel adds the optimistic lock and the record shape version.
// Rows written before the project layer carry schema_version 1 until the data migration runs.
type AggregateModel struct {
	BaseModel
	SchemaVersion int `gorm:"not null;default:2"`
	Version       int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.SchemaVersion = a.SchemaVersion
	if m.SchemaVersion == 0 {
		m.SchemaVersion = shared.CurrentSchemaVersion
	}
}

// ToDomainAggregateRoot rebuilds the domain aggregate header
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity:    m.BaseModel.ToDomain(),
		Version:       m.Version,
		SchemaVersion: m.SchemaVersion,
	}
}
