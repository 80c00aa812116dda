package disciplinary

// Status represents the workflow status of a disciplinary request
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusApproved   Status = "aprobado"
	StatusRejected   Status = "rechazado"
	StatusSanctioned Status = "sancionado"
)

// IsValid checks if the Status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSanctioned:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanBeReviewed returns true if a review decision may still be recorded.
// Sanctioned requests are closed for review.
func (s Status) CanBeReviewed() bool {
	return s != StatusSanctioned
}

// AllStatuses returns all valid Status values
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusSanctioned}
}

// Decision is the outcome a reviewer records
type Decision string

const (
	DecisionApproved Decision = "aprobado"
	DecisionRejected Decision = "rechazado"
)

// IsValid checks if the Decision is a valid value
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// String returns the string representation of Decision
func (d Decision) String() string {
	return string(d)
}

// Status returns the workflow status the decision moves the request to
func (d Decision) Status() Status {
	return Status(d)
}

// AttachmentKind distinguishes uploaded files from external links
type AttachmentKind string

const (
	AttachmentKindFile AttachmentKind = "archivo"
	AttachmentKindLink AttachmentKind = "url"
)

// IsValid checks if the AttachmentKind is a valid value
func (k AttachmentKind) IsValid() bool {
	return k == AttachmentKindFile || k == AttachmentKindLink
}

// String returns the string representation of AttachmentKind
func (k AttachmentKind) String() string {
	return string(k)
}
