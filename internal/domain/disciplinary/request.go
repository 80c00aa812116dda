package disciplinary

import (
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/domain/shared"
)

// Request is the disciplinary request aggregate root.
// The ID is assigned once on creation and never changes.
type Request struct {
	shared.BaseAggregateRoot
	Requester   Requester
	Worker      Worker
	Incident    Incident
	Attachments []Attachment
	Status      Status
	Review      *Review
	Sanction    *Sanction
	CreatedBy   string
}

// NewRequest creates a pending request after validating the submission form.
// Every field is required except the incident's additional info.
func NewRequest(requester Requester, worker Worker, incident Incident, createdBy string) (*Request, error) {
	requester = trimRequester(requester)
	worker = trimWorker(worker)
	incident = trimIncident(incident)

	if err := validateSubmission(requester, worker, incident); err != nil {
		return nil, err
	}

	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		createdBy = AnonymousCreator
	}

	r := &Request{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Requester:         requester,
		Worker:            worker,
		Incident:          incident,
		Attachments:       make([]Attachment, 0),
		Status:            StatusPending,
		CreatedBy:         createdBy,
	}

	r.AddDomainEvent(NewRequestSubmittedEvent(r))

	return r, nil
}

// AppendAttachments adds entries to the end of the attachment history.
// Existing entries are never modified.
func (r *Request) AppendAttachments(attachments ...Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for _, a := range attachments {
		if !a.Kind.IsValid() {
			return shared.NewDomainError("INVALID_ATTACHMENT", "Invalid attachment kind: "+a.Kind.String())
		}
		if a.URL == "" {
			return shared.NewDomainError("INVALID_ATTACHMENT", "Attachment URL cannot be empty")
		}
	}

	history := make([]Attachment, 0, len(r.Attachments)+len(attachments))
	history = append(history, r.Attachments...)
	history = append(history, attachments...)
	r.Attachments = history

	r.touch()
	r.AddDomainEvent(NewAttachmentsAddedEvent(r, len(attachments)))

	return nil
}

// ApplyReview records a reviewer decision and moves the status accordingly
func (r *Request) ApplyReview(comment string, decision Decision, reviewer string, at time.Time) error {
	if !decision.IsValid() {
		return shared.NewDomainError("INVALID_DECISION", "Invalid review decision: "+decision.String())
	}
	if strings.TrimSpace(reviewer) == "" {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer identity is required")
	}
	if !r.Status.CanBeReviewed() {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot review a request in status: "+r.Status.String())
	}

	oldStatus := r.Status
	r.Review = &Review{
		Comment:   comment,
		DecidedAt: at,
		Reviewer:  reviewer,
		Decision:  decision,
	}
	r.Status = decision.Status()

	r.touch()
	r.AddDomainEvent(NewRequestReviewedEvent(r, oldStatus))

	return nil
}

// ImposeSanction attaches a sanction and marks the request as sanctioned.
// A later sanction replaces the previous one.
func (r *Request) ImposeSanction(sanctionType, description, startDate, endDate, admin string, at time.Time) error {
	if strings.TrimSpace(description) == "" {
		return shared.NewDomainError("INVALID_SANCTION", "Sanction description is required")
	}
	if strings.TrimSpace(admin) == "" {
		return shared.NewDomainError("INVALID_SANCTION", "Sanctioning administrator is required")
	}

	oldStatus := r.Status
	r.Sanction = &Sanction{
		Type:        sanctionType,
		Description: description,
		StartDate:   startDate,
		EndDate:     endDate,
		ImposedAt:   at,
		ImposedBy:   admin,
	}
	r.Status = StatusSanctioned

	r.touch()
	r.AddDomainEvent(NewSanctionImposedEvent(r, oldStatus))

	return nil
}

// UpdateDetails applies an administrator edit to the worker and incident fields
func (r *Request) UpdateDetails(update DetailsUpdate) error {
	update.WorkerName = strings.TrimSpace(update.WorkerName)
	update.NationalID = strings.TrimSpace(update.NationalID)
	if update.WorkerName == "" {
		return shared.NewDomainError("INVALID_WORKER", "Worker name cannot be empty")
	}
	if update.NationalID == "" {
		return shared.NewDomainError("INVALID_WORKER", "Worker national ID cannot be empty")
	}

	r.Worker.Name = update.WorkerName
	r.Worker.NationalID = update.NationalID
	r.Worker.JobTitle = strings.TrimSpace(update.JobTitle)
	r.Worker.Area = strings.TrimSpace(update.Area)
	r.Incident.Description = update.Description

	r.touch()
	r.AddDomainEvent(NewRequestUpdatedEvent(r))

	return nil
}

// MarkDeleted records the deletion event. Blobs must be released by the caller.
func (r *Request) MarkDeleted() {
	r.AddDomainEvent(NewRequestDeletedEvent(r))
}

// BlobPaths returns the storage paths of uploaded attachments
func (r *Request) BlobPaths() []string {
	paths := make([]string, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		if a.Path != "" {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// Validate checks the status/outcome invariants of a loaded request
func (r *Request) Validate() error {
	if !r.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid request status: "+r.Status.String())
	}
	switch r.Status {
	case StatusSanctioned:
		if r.Sanction == nil {
			return shared.NewDomainError("INVALID_STATE", "Sanctioned request has no sanction")
		}
	case StatusApproved, StatusRejected:
		if r.Review == nil || r.Review.Decision.Status() != r.Status {
			return shared.NewDomainError("INVALID_STATE",
				"Request status "+r.Status.String()+" does not match its review")
		}
	}
	return nil
}

func (r *Request) touch() {
	r.Touch(time.Now())
}

func validateSubmission(requester Requester, worker Worker, incident Incident) error {
	required := []struct {
		field string
		value string
	}{
		{"requester name", requester.Name},
		{"requester title", requester.Title},
		{"request date", requester.RequestDate},
		{"worker name", worker.Name},
		{"worker national ID", worker.NationalID},
		{"worker job title", worker.JobTitle},
		{"worker area", worker.Area},
		{"worker supervisor", worker.Supervisor},
		{"incident dates", incident.Dates},
		{"incident location", incident.Location},
		{"incident description", incident.Description},
	}
	for _, f := range required {
		if f.value == "" {
			return shared.NewDomainError("REQUIRED_FIELD", "The "+f.field+" is required")
		}
	}
	return nil
}

func trimRequester(r Requester) Requester {
	r.Name = strings.TrimSpace(r.Name)
	r.Title = strings.TrimSpace(r.Title)
	r.RequestDate = strings.TrimSpace(r.RequestDate)
	return r
}

func trimWorker(w Worker) Worker {
	w.Name = strings.TrimSpace(w.Name)
	w.NationalID = strings.TrimSpace(w.NationalID)
	w.JobTitle = strings.TrimSpace(w.JobTitle)
	w.Area = strings.TrimSpace(w.Area)
	w.Supervisor = strings.TrimSpace(w.Supervisor)
	return w
}

func trimIncident(i Incident) Incident {
	i.Dates = strings.TrimSpace(i.Dates)
	i.Location = strings.TrimSpace(i.Location)
	i.Description = strings.TrimSpace(i.Description)
	i.AdditionalInfo = strings.TrimSpace(i.AdditionalInfo)
	return i
}
