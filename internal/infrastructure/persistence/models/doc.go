// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: columns shared by aggregate tables (AggregateModel)
//   - identity.go: user accounts
//   - disciplinary.go: disciplinary requests, with attachments, review and
//     sanction stored as JSON columns
package models
