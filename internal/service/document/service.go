package document

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
	"github.com/makhanda-smiles/portal-api/internal/session"
	"github.com/makhanda-smiles/portal-api/internal/storage"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/metrics"
)

const discardTimeout = 10 * time.Second

type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	repo    repository.DocumentRepository
	store   storage.Store
	demo    storage.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(repo repository.DocumentRepository, store storage.Store, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		store:   store,
		demo:    storage.DemoStore{},
		metrics: m,
		logger:  logger,
	}
}

// Upload stores a patient's document. A demo session only simulates the
// upload; a real one stores the file and records it.
func (s *Service) Upload(ctx context.Context, source session.Source, owner *session.Identity, req model.UploadDocumentRequest, file *File) (*model.MedicalDocument, error) {
	if file == nil || file.Body == nil {
		return nil, errors.BadRequest("please select a file", nil)
	}
	if !req.DocumentType.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown document type %q", req.DocumentType), nil)
	}
	if file.Size > model.MaxDocumentBytes {
		return nil, errors.BadRequest("file is larger than 10MB", nil)
	}
	if owner == nil {
		return nil, errors.Unauthorized(nil)
	}

	obj := storage.Object{
		PatientEmail: owner.Email,
		DocumentType: req.DocumentType,
		FileName:     file.Name,
		ContentType:  file.ContentType,
		Size:         file.Size,
	}
	doc := &model.MedicalDocument{
		ID:           uuid.New(),
		PatientEmail: owner.Email,
		DocumentType: req.DocumentType,
		Description:  req.Description,
		FileName:     file.Name,
		ContentType:  file.ContentType,
		SizeBytes:    file.Size,
		CreatedAt:    time.Now(),
	}

	switch source.(type) {
	case session.Demo:
		ref, err := s.demo.Put(ctx, file.Body, obj)
		if err != nil {
			return nil, errors.Unavailable("failed to upload document", err)
		}
		doc.StorageRef = ref
		s.metrics.DocumentUploaded(string(req.DocumentType), s.demo.Name())
		return doc, nil

	case session.Real:
		ref, err := s.store.Put(ctx, file.Body, obj)
		if err != nil {
			s.logger.Error().Err(err).Str("document_type", string(req.DocumentType)).Msg("document upload failed")
			return nil, errors.Unavailable("failed to upload document", err)
		}
		doc.StorageRef = ref
		if err := s.repo.Create(ctx, doc); err != nil {
			s.discard(ctx, ref)
			return nil, errors.Unavailable("failed to save document", err)
		}
		s.metrics.DocumentUploaded(string(req.DocumentType), s.store.Name())
		s.logger.Info().
			Str("document_id", doc.ID.String()).
			Str("document_type", string(req.DocumentType)).
			Msg("document uploaded")
		return doc, nil
	}
	return nil, errors.Unauthorized(nil)
}

// discard removes an object whose record could not be saved. It runs even
// when ctx is already done, since that is often why the save failed.
func (s *Service) discard(ctx context.Context, ref string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, ref); err != nil {
		s.logger.Error().Err(err).Str("storage_ref", ref).Msg("orphaned document object left in storage")
	}
}

// List returns the owner's documents. Demo sessions have none.
func (s *Service) List(ctx context.Context, source session.Source, owner *session.Identity) ([]*model.MedicalDocument, error) {
	switch source.(type) {
	case session.Demo:
		return []*model.MedicalDocument{}, nil
	case session.Real:
		docs, err := s.repo.ListByPatient(ctx, owner.Email)
		if err != nil {
			return nil, errors.Unavailable("failed to load documents", err)
		}
		return docs, nil
	}
	return nil, errors.Unauthorized(nil)
}
