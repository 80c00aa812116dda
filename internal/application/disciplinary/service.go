package disciplinary

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/domain/disciplinary"
	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrRequestNotFound is returned when no request has the given ID
var ErrRequestNotFound = shared.NewDomainError("RECORD_NOT_FOUND", "Request not found")

// BlobStore stores attachment files
type BlobStore interface {
	// Upload stores the content under path and returns its public URL
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) (string, error)
	// Remove deletes the objects at the given paths
	Remove(ctx context.Context, paths []string) error
}

// ServiceConfig holds the collaborators of the request service
type ServiceConfig struct {
	Repository     disciplinary.RequestRepository
	BlobStore      BlobStore
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
	// UploadConcurrency bounds parallel file uploads (default 4)
	UploadConcurrency int
	Now               func() time.Time
	RandomSuffix      func() string
}

// RequestService handles disciplinary request use cases
type RequestService struct {
	repo              disciplinary.RequestRepository
	blobs             BlobStore
	eventPublisher    shared.EventPublisher
	logger            *zap.Logger
	uploadConcurrency int
	now               func() time.Time
	randomSuffix      func() string
}

// NewRequestService creates a new RequestService
func NewRequestService(config ServiceConfig) *RequestService {
	s := &RequestService{
		repo:              config.Repository,
		blobs:             config.BlobStore,
		eventPublisher:    config.EventPublisher,
		logger:            config.Logger,
		uploadConcurrency: config.UploadConcurrency,
		now:               config.Now,
		randomSuffix:      config.RandomSuffix,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.uploadConcurrency <= 0 {
		s.uploadConcurrency = 4
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.randomSuffix == nil {
		s.randomSuffix = func() string { return RandomSuffix(randomSuffixLength) }
	}
	return s
}

// Submit files a new request
func (s *RequestService) Submit(ctx context.Context, req SubmitRequest) (resp *RequestResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RequestService", "Submit",
		telemetry.WithAttribute(telemetry.SpanAttrWorkerArea, req.Area))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	request, err := disciplinary.NewRequest(
		disciplinary.Requester{Name: req.RequesterName, Title: req.RequesterTitle, RequestDate: req.RequestDate},
		disciplinary.Worker{
			Name:       req.WorkerName,
			NationalID: req.NationalID,
			JobTitle:   req.JobTitle,
			Area:       req.Area,
			Supervisor: req.Supervisor,
		},
		disciplinary.Incident{
			Dates:          req.IncidentDates,
			Location:       req.Location,
			Description:    req.Description,
			AdditionalInfo: req.AdditionalInfo,
		},
		req.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, wrapStoreError("create request", err)
	}

	s.logger.Info("Disciplinary request submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("area", request.Worker.Area),
		zap.String("created_by", request.CreatedBy))

	telemetry.SetAttributes(span, telemetry.SpanAttrRequestID, request.ID.String())
	s.publishEvents(ctx, request)

	out := ToRequestResponse(request)
	return &out, nil
}

// Get returns one request
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (*RequestResponse, error) {
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRequestResponse(request)
	return &resp, nil
}

// List returns a filtered page of requests, newest first
func (s *RequestService) List(ctx context.Context, req ListRequest) (*shared.Paginated[RequestListItem], error) {
	filter := toListFilter(req)

	requests, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, wrapStoreError("list requests", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, wrapStoreError("count requests", err)
	}

	items := make([]RequestListItem, len(requests))
	for i := range requests {
		items[i] = ToRequestListItem(&requests[i])
	}

	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListAll returns every request matching the filter, ignoring pagination
func (s *RequestService) ListAll(ctx context.Context, req ListRequest) ([]disciplinary.Request, error) {
	filter := toListFilter(req)
	filter.Page = 1
	filter.PageSize = 0

	requests, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, wrapStoreError("list requests", err)
	}
	return requests, nil
}

// Areas returns the distinct worker areas
func (s *RequestService) Areas(ctx context.Context) ([]string, error) {
	areas, err := s.repo.Areas(ctx)
	if err != nil {
		return nil, wrapStoreError("list areas", err)
	}
	return areas, nil
}

// Review records a reviewer decision
func (s *RequestService) Review(ctx context.Context, id uuid.UUID, req ReviewRequest, reviewer string) (*RequestResponse, error) {
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := request.ApplyReview(req.Comment, disciplinary.Decision(req.Decision), reviewer, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, request); err != nil {
		return nil, wrapStoreError("save review", err)
	}

	s.logger.Info("Disciplinary request reviewed",
		zap.String("request_id", id.String()),
		zap.String("decision", req.Decision),
		zap.String("reviewer", reviewer))

	s.publishEvents(ctx, request)

	resp := ToRequestResponse(request)
	return &resp, nil
}

// Sanction imposes a sanction on a request
func (s *RequestService) Sanction(ctx context.Context, id uuid.UUID, req SanctionRequest, admin string) (*RequestResponse, error) {
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := request.ImposeSanction(req.Type, req.Description, req.StartDate, req.EndDate, admin, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, request); err != nil {
		return nil, wrapStoreError("save sanction", err)
	}

	s.logger.Info("Sanction imposed",
		zap.String("request_id", id.String()),
		zap.String("type", req.Type),
		zap.String("admin", admin))

	s.publishEvents(ctx, request)

	resp := ToRequestResponse(request)
	return &resp, nil
}

// Update applies an administrator edit
func (s *RequestService) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*RequestResponse, error) {
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	err = request.UpdateDetails(disciplinary.DetailsUpdate{
		WorkerName:  req.WorkerName,
		NationalID:  req.NationalID,
		JobTitle:    req.JobTitle,
		Area:        req.Area,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, request); err != nil {
		return nil, wrapStoreError("update request", err)
	}

	s.publishEvents(ctx, request)

	resp := ToRequestResponse(request)
	return &resp, nil
}

// Delete removes the request's stored files and then the request. A failed
// file removal is logged and does not block the deletion.
func (s *RequestService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RequestService", "Delete",
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, id.String()))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	request, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if paths := request.BlobPaths(); len(paths) > 0 && s.blobs != nil {
		if err := s.blobs.Remove(ctx, paths); err != nil {
			telemetry.AddEvent(span, "blob_removal_failed", "paths", len(paths))
			s.logger.Warn("Failed to remove attachment files",
				zap.String("request_id", id.String()),
				zap.Strings("paths", paths),
				zap.Error(err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return wrapStoreError("delete request", err)
	}

	request.MarkDeleted()
	s.publishEvents(ctx, request)

	s.logger.Info("Disciplinary request deleted", zap.String("request_id", id.String()))
	return nil
}

// UploadAttachments stores the files and records them, followed by the
// comma-separated links, at the end of the attachment history. Files that
// fail to upload are reported and skipped.
func (s *RequestService) UploadAttachments(ctx context.Context, id uuid.UUID, files []UploadFile, links string) (result *UploadResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "RequestService", "UploadAttachments",
		telemetry.WithAttribute(telemetry.SpanAttrRequestID, id.String()),
		telemetry.WithAttribute("upload.files", len(files)))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	uploaded := make([]*disciplinary.Attachment, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			attachment, err := s.uploadFile(gctx, request.ID, f)
			if err != nil {
				s.logger.Warn("Attachment upload failed",
					zap.String("request_id", id.String()),
					zap.String("file", f.Name),
					zap.Error(err))
				return nil
			}
			uploaded[i] = attachment
			return nil
		})
	}
	_ = g.Wait()

	result = &UploadResult{Added: []AttachmentResponse{}, Failed: []string{}}
	added := make([]disciplinary.Attachment, 0, len(files))
	for i, a := range uploaded {
		if a == nil {
			result.Failed = append(result.Failed, files[i].Name)
			continue
		}
		added = append(added, *a)
	}

	at := s.now()
	for _, raw := range strings.Split(links, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		link, err := disciplinary.NewLinkAttachment(raw, at)
		if err != nil {
			return nil, err
		}
		added = append(added, link)
	}

	if len(added) > 0 {
		if err := request.AppendAttachments(added...); err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, request); err != nil {
			return nil, wrapStoreError("save attachments", err)
		}
		s.publishEvents(ctx, request)
	}

	result.Added = ToAttachmentResponses(added)
	result.Total = len(request.Attachments)
	telemetry.SetAttributes(span, telemetry.SpanAttrAttachments, result.Total, "upload.failed", len(result.Failed))
	return result, nil
}

func (s *RequestService) uploadFile(ctx context.Context, requestID uuid.UUID, f UploadFile) (*disciplinary.Attachment, error) {
	if s.blobs == nil {
		return nil, errors.New("no blob store configured")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	at := s.now()
	path := BlobPath(requestID, f.Name, at, s.randomSuffix())
	url, err := s.blobs.Upload(ctx, path, rc, f.Size, f.ContentType)
	if err != nil {
		return nil, err
	}

	a := disciplinary.NewFileAttachment(f.Name, f.ContentType, f.Size, url, path, at)
	return &a, nil
}

func (s *RequestService) find(ctx context.Context, id uuid.UUID) (*disciplinary.Request, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, wrapStoreError("find request", err)
	}
	return request, nil
}

// publishEvents publishes and clears pending domain events. Publishing
// failures never fail the use case.
func (s *RequestService) publishEvents(ctx context.Context, request *disciplinary.Request) {
	events := request.PullDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events",
			zap.String("request_id", request.ID.String()),
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

func toListFilter(req ListRequest) disciplinary.ListFilter {
	filter := disciplinary.DefaultListFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.Search = foldSearch(req.Search)
	filter.Area = strings.TrimSpace(req.Area)
	filter.Status = disciplinary.Status(req.Status)
	return filter
}

// foldSearch lower-cases the search term with Spanish rules so it can be
// matched against LOWER() columns
func foldSearch(s string) string {
	return cases.Lower(language.Spanish).String(strings.TrimSpace(s))
}

// wrapStoreError keeps domain errors and marks everything else as a
// backend failure
func wrapStoreError(op string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	var backendErr *shared.BackendError
	if errors.As(err, &backendErr) {
		return err
	}
	return shared.NewBackendError(op, err)
}
