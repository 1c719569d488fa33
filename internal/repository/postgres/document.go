package postgres

import (
	"context"
	"fmt"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/internal/repository"
)

type documentRepository struct {
	BaseRepository
}

func NewDocumentRepository(base BaseRepository) repository.DocumentRepository {
	return &documentRepository{base}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.MedicalDocument) error {
	query := `
		INSERT INTO medical_documents (
			id, patient_email, document_type, description, file_name,
			content_type, size_bytes, storage_ref, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.PatientEmail,
		doc.DocumentType,
		doc.Description,
		doc.FileName,
		doc.ContentType,
		doc.SizeBytes,
		doc.StorageRef,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical document: %w", mapError(err))
	}
	return nil
}

func (r *documentRepository) ListByPatient(ctx context.Context, patientEmail string) ([]*model.MedicalDocument, error) {
	query := `
		SELECT id, patient_email, document_type, description, file_name,
		       content_type, size_bytes, storage_ref, created_at
		FROM medical_documents
		WHERE lower(patient_email) = lower($1)
		ORDER BY created_at DESC
	`
	docs := []*model.MedicalDocument{}
	if err := r.db.SelectContext(ctx, &docs, query, patientEmail); err != nil {
		return nil, fmt.Errorf("failed to list medical documents: %w", err)
	}
	return docs, nil
}
