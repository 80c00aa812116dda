package models

import (
	"github.com/disciplinario/backend/internal/domain/disciplinary"
)

// DisciplinaryRequestModel is the persistence model for the Request aggregate.
// Scalar fields are flattened into columns so they can be filtered and
// sorted; the attachment history, review and sanction are JSON documents.
type DisciplinaryRequestModel struct {
	AggregateModel
	RequesterName       string                    `gorm:"type:varchar(200);not null"`
	RequesterTitle      string                    `gorm:"type:varchar(200);not null"`
	RequestDate         string                    `gorm:"type:varchar(50);not null"`
	WorkerName          string                    `gorm:"type:varchar(200);not null;index"`
	WorkerNationalID    string                    `gorm:"column:worker_national_id;type:varchar(50);not null;index"`
	WorkerJobTitle      string                    `gorm:"type:varchar(200);not null"`
	WorkerArea          string                    `gorm:"type:varchar(200);not null;index"`
	WorkerSupervisor    string                    `gorm:"type:varchar(200);not null"`
	IncidentDates       string                    `gorm:"type:text;not null"`
	IncidentLocation    string                    `gorm:"type:varchar(300);not null"`
	IncidentDescription string                    `gorm:"type:text;not null"`
	IncidentAdditional  string                    `gorm:"column:incident_additional_info;type:text"`
	Attachments         []disciplinary.Attachment `gorm:"type:jsonb;serializer:json"`
	Status              disciplinary.Status       `gorm:"type:varchar(20);not null;index"`
	Review              *disciplinary.Review      `gorm:"type:jsonb;serializer:json"`
	Sanction            *disciplinary.Sanction    `gorm:"type:jsonb;serializer:json"`
	CreatedBy           string                    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (DisciplinaryRequestModel) TableName() string {
	return "disciplinary_requests"
}

// ToDomain converts the persistence model to a domain Request
func (m *DisciplinaryRequestModel) ToDomain() *disciplinary.Request {
	attachments := m.Attachments
	if attachments == nil {
		attachments = make([]disciplinary.Attachment, 0)
	}
	return &disciplinary.Request{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Requester: disciplinary.Requester{
			Name:        m.RequesterName,
			Title:       m.RequesterTitle,
			RequestDate: m.RequestDate,
		},
		Worker: disciplinary.Worker{
			Name:       m.WorkerName,
			NationalID: m.WorkerNationalID,
			JobTitle:   m.WorkerJobTitle,
			Area:       m.WorkerArea,
			Supervisor: m.WorkerSupervisor,
		},
		Incident: disciplinary.Incident{
			Dates:          m.IncidentDates,
			Location:       m.IncidentLocation,
			Description:    m.IncidentDescription,
			AdditionalInfo: m.IncidentAdditional,
		},
		Attachments: attachments,
		Status:      m.Status,
		Review:      m.Review,
		Sanction:    m.Sanction,
		CreatedBy:   m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Request
func (m *DisciplinaryRequestModel) FromDomain(r *disciplinary.Request) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.RequesterName = r.Requester.Name
	m.RequesterTitle = r.Requester.Title
	m.RequestDate = r.Requester.RequestDate
	m.WorkerName = r.Worker.Name
	m.WorkerNationalID = r.Worker.NationalID
	m.WorkerJobTitle = r.Worker.JobTitle
	m.WorkerArea = r.Worker.Area
	m.WorkerSupervisor = r.Worker.Supervisor
	m.IncidentDates = r.Incident.Dates
	m.IncidentLocation = r.Incident.Location
	m.IncidentDescription = r.Incident.Description
	m.IncidentAdditional = r.Incident.AdditionalInfo
	m.Attachments = r.Attachments
	if m.Attachments == nil {
		m.Attachments = make([]disciplinary.Attachment, 0)
	}
	m.Status = r.Status
	m.Review = r.Review
	m.Sanction = r.Sanction
	m.CreatedBy = r.CreatedBy
}

// DisciplinaryRequestModelFromDomain creates a new persistence model from a domain Request
func DisciplinaryRequestModelFromDomain(r *disciplinary.Request) *DisciplinaryRequestModel {
	m := &DisciplinaryRequestModel{}
	m.FromDomain(r)
	return m
}
