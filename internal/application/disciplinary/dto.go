package disciplinary

import (
	"io"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/google/uuid"
)

// SubmitRequest is the submission form
type SubmitRequest struct {
	RequesterName  string `json:"solicitante_nombre" binding:"required,max=200"`
	RequesterTitle string `json:"solicitante_cargo" binding:"required,max=200"`
	RequestDate    string `json:"fecha_solicitud" binding:"required,max=50"`
	WorkerName     string `json:"trabajador_nombre" binding:"required,max=200"`
	NationalID     string `json:"trabajador_cedula" binding:"required,max=50"`
	JobTitle       string `json:"trabajador_cargo" binding:"required,max=200"`
	Area           string `json:"trabajador_area" binding:"required,max=200"`
	Supervisor     string `json:"trabajador_jefe" binding:"required,max=200"`
	IncidentDates  string `json:"hechos_fechas" binding:"required,max=500"`
	Location       string `json:"hechos_lugar" binding:"required,max=500"`
	Description    string `json:"hechos_descripcion" binding:"required,max=10000"`
	AdditionalInfo string `json:"hechos_info_adicional" binding:"max=10000"`

	// CreatedBy is the authenticated email, empty for anonymous submissions
	CreatedBy string `json:"-"`
}

// UpdateRequest carries an administrator edit
type UpdateRequest struct {
	WorkerName  string `json:"trabajador_nombre" binding:"required,max=200"`
	NationalID  string `json:"trabajador_cedula" binding:"required,max=50"`
	JobTitle    string `json:"trabajador_cargo" binding:"max=200"`
	Area        string `json:"trabajador_area" binding:"max=200"`
	Description string `json:"hechos_descripcion" binding:"max=10000"`
}

// ReviewRequest records a reviewer decision
type ReviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=aprobado rechazado"`
	Comment  string `json:"comentario" binding:"max=5000"`
}

// SanctionRequest imposes a sanction
type SanctionRequest struct {
	Type        string `json:"tipo" binding:"required,max=200"`
	Description string `json:"descripcion" binding:"required,max=5000"`
	StartDate   string `json:"fecha_inicio" binding:"max=50"`
	EndDate     string `json:"fecha_fin" binding:"max=50"`
}

// ListRequest filters the admin listing
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=200"`
	Area     string `form:"area" binding:"max=200"`
	Status   string `form:"estado" binding:"omitempty,oneof=pendiente aprobado rechazado sancionado"`
}

// UploadFile is one file of an attachment upload
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// AttachmentResponse is one attachment entry
type AttachmentResponse struct {
	Kind       string    `json:"tipo"`
	Name       string    `json:"nombre"`
	URL        string    `json:"url"`
	Path       string    `json:"path,omitempty"`
	MimeType   string    `json:"mime,omitempty"`
	Size       int64     `json:"tamano,omitempty"`
	UploadedAt time.Time `json:"subido"`
}

// UploadResult reports which files were stored
type UploadResult struct {
	Added  []AttachmentResponse `json:"agregados"`
	Failed []string             `json:"fallidos"`
	Total  int                  `json:"total"`
}

// ReviewResponse is the recorded review
type ReviewResponse struct {
	Comment   string    `json:"comentario"`
	DecidedAt time.Time `json:"fecha"`
	Reviewer  string    `json:"revisor"`
	Decision  string    `json:"decision"`
}

// SanctionResponse is the imposed sanction
type SanctionResponse struct {
	Type        string    `json:"tipo"`
	Description string    `json:"descripcion"`
	StartDate   string    `json:"fecha_inicio,omitempty"`
	EndDate     string    `json:"fecha_fin,omitempty"`
	ImposedAt   time.Time `json:"fecha_registro"`
	ImposedBy   string    `json:"admin"`
}

// RequestResponse is a full disciplinary request
type RequestResponse struct {
	ID             uuid.UUID            `json:"id"`
	RequesterName  string               `json:"solicitante_nombre"`
	RequesterTitle string               `json:"solicitante_cargo"`
	RequestDate    string               `json:"fecha_solicitud"`
	WorkerName     string               `json:"trabajador_nombre"`
	NationalID     string               `json:"trabajador_cedula"`
	JobTitle       string               `json:"trabajador_cargo"`
	Area           string               `json:"trabajador_area"`
	Supervisor     string               `json:"trabajador_jefe"`
	IncidentDates  string               `json:"hechos_fechas"`
	Location       string               `json:"hechos_lugar"`
	Description    string               `json:"hechos_descripcion"`
	AdditionalInfo string               `json:"hechos_info_adicional"`
	Attachments    []AttachmentResponse `json:"anexos"`
	Status         string               `json:"estado"`
	Review         *ReviewResponse      `json:"revision"`
	Sanction       *SanctionResponse    `json:"sancion"`
	CreatedBy      string               `json:"creado_por"`
	CreatedAt      time.Time            `json:"fecha_registro"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Version        int                  `json:"version"`
}

// RequestListItem is a row of the admin listing
type RequestListItem struct {
	ID          uuid.UUID `json:"id"`
	WorkerName  string    `json:"trabajador_nombre"`
	NationalID  string    `json:"trabajador_cedula"`
	Area        string    `json:"trabajador_area"`
	Requester   string    `json:"solicitante_nombre"`
	RequestDate string    `json:"fecha_solicitud"`
	Status      string    `json:"estado"`
	Attachments int       `json:"anexos"`
	CreatedAt   time.Time `json:"fecha_registro"`
}

// ToRequestResponse converts a domain request to a response DTO
func ToRequestResponse(r *disciplinary.Request) RequestResponse {
	resp := RequestResponse{
		ID:             r.ID,
		RequesterName:  r.Requester.Name,
		RequesterTitle: r.Requester.Title,
		RequestDate:    r.Requester.RequestDate,
		WorkerName:     r.Worker.Name,
		NationalID:     r.Worker.NationalID,
		JobTitle:       r.Worker.JobTitle,
		Area:           r.Worker.Area,
		Supervisor:     r.Worker.Supervisor,
		IncidentDates:  r.Incident.Dates,
		Location:       r.Incident.Location,
		Description:    r.Incident.Description,
		AdditionalInfo: r.Incident.AdditionalInfo,
		Attachments:    ToAttachmentResponses(r.Attachments),
		Status:         r.Status.String(),
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
	if r.Review != nil {
		resp.Review = &ReviewResponse{
			Comment:   r.Review.Comment,
			DecidedAt: r.Review.DecidedAt,
			Reviewer:  r.Review.Reviewer,
			Decision:  r.Review.Decision.String(),
		}
	}
	if r.Sanction != nil {
		resp.Sanction = &SanctionResponse{
			Type:        r.Sanction.Type,
			Description: r.Sanction.Description,
			StartDate:   r.Sanction.StartDate,
			EndDate:     r.Sanction.EndDate,
			ImposedAt:   r.Sanction.ImposedAt,
			ImposedBy:   r.Sanction.ImposedBy,
		}
	}
	return resp
}

// ToRequestListItem converts a domain request to a listing row
func ToRequestListItem(r *disciplinary.Request) RequestListItem {
	return RequestListItem{
		ID:          r.ID,
		WorkerName:  r.Worker.Name,
		NationalID:  r.Worker.NationalID,
		Area:        r.Worker.Area,
		Requester:   r.Requester.Name,
		RequestDate: r.Requester.RequestDate,
		Status:      r.Status.String(),
		Attachments: len(r.Attachments),
		CreatedAt:   r.CreatedAt,
	}
}

// ToAttachmentResponses converts attachment entries
func ToAttachmentResponses(attachments []disciplinary.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, len(attachments))
	for i, a := range attachments {
		out[i] = AttachmentResponse{
			Kind:       a.Kind.String(),
			Name:       a.Name,
			URL:        a.URL,
			Path:       a.Path,
			MimeType:   a.MimeType,
			Size:       a.Size,
			UploadedAt: a.UploadedAt,
		}
	}
	return out
}
