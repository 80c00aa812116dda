package disciplinary

import (
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/domain/shared"
)

// AnonymousCreator is recorded when a request is filed without a session
const AnonymousCreator = "anónimo"

// defaultLinkName is used when a link has no usable last path segment
const defaultLinkName = "enlace"

// Requester identifies who files the request
type Requester struct {
	Name        string `json:"nombre"`
	Title       string `json:"cargo"`
	RequestDate string `json:"fecha_solicitud"`
}

// Worker is the subject of the request
type Worker struct {
	Name       string `json:"nombre"`
	NationalID string `json:"cedula"`
	JobTitle   string `json:"cargo"`
	Area       string `json:"area"`
	Supervisor string `json:"jefe"`
}

// Incident describes the facts being reported
type Incident struct {
	Dates          string `json:"fechas"`
	Location       string `json:"lugar"`
	Description    string `json:"descripcion"`
	AdditionalInfo string `json:"info_adicional,omitempty"`
}

// Attachment is one entry of a request's attachment history
type Attachment struct {
	Kind       AttachmentKind `json:"tipo"`
	Name       string         `json:"nombre"`
	URL        string         `json:"url"`
	Path       string         `json:"path,omitempty"`
	MimeType   string         `json:"mime,omitempty"`
	Size       int64          `json:"tamano,omitempty"`
	UploadedAt time.Time      `json:"subido"`
}

// IsImage reports whether the attachment is an uploaded image file
func (a Attachment) IsImage() bool {
	return a.Kind == AttachmentKindFile && strings.HasPrefix(a.MimeType, "image/")
}

// NewFileAttachment creates an attachment for a blob already stored under path
func NewFileAttachment(name, mimeType string, size int64, publicURL, blobPath string, at time.Time) Attachment {
	return Attachment{
		Kind:       AttachmentKindFile,
		Name:       name,
		URL:        publicURL,
		Path:       blobPath,
		MimeType:   mimeType,
		Size:       size,
		UploadedAt: at,
	}
}

// NewLinkAttachment creates an attachment pointing to an external URL.
// The display name is the last path segment of the URL.
func NewLinkAttachment(rawURL string, at time.Time) (Attachment, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Attachment{}, shared.NewDomainError("INVALID_ATTACHMENT", "Attachment URL cannot be empty")
	}
	return Attachment{
		Kind:       AttachmentKindLink,
		Name:       linkName(rawURL),
		URL:        rawURL,
		UploadedAt: at,
	}, nil
}

func linkName(rawURL string) string {
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]
	if name == "" {
		return defaultLinkName
	}
	return name
}

// Review is the outcome recorded by a reviewer
type Review struct {
	Comment   string    `json:"comentario"`
	DecidedAt time.Time `json:"fecha"`
	Reviewer  string    `json:"revisor"`
	Decision  Decision  `json:"decision"`
}

// Sanction is the penalty imposed by an administrator
type Sanction struct {
	Type        string    `json:"tipo"`
	Description string    `json:"descripcion"`
	StartDate   string    `json:"fecha_inicio,omitempty"`
	EndDate     string    `json:"fecha_fin,omitempty"`
	ImposedAt   time.Time `json:"fecha_registro"`
	ImposedBy   string    `json:"admin"`
}

// DetailsUpdate carries the fields an administrator may edit
type DetailsUpdate struct {
	WorkerName  string
	NationalID  string
	JobTitle    string
	Area        string
	Description string
}
