package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentTypeXRay      DocumentType = "xray"
	DocumentTypeScan      DocumentType = "scan"
	DocumentTypeReport    DocumentType = "report"
	DocumentTypeInsurance DocumentType = "insurance"
	DocumentTypeOther     DocumentType = "other"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeXRay, DocumentTypeScan, DocumentTypeReport, DocumentTypeInsurance, DocumentTypeOther:
		return true
	}
	return false
}

type MedicalDocument struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	PatientEmail string       `json:"patient_email" db:"patient_email"`
	DocumentType DocumentType `json:"document_type" db:"document_type"`
	Description  string       `json:"description" db:"description"`
	FileName     string       `json:"file_name" db:"file_name"`
	ContentType  string       `json:"content_type" db:"content_type"`
	SizeBytes    int64        `json:"size_bytes" db:"size_bytes"`
	StorageRef   string       `json:"storage_ref" db:"storage_ref"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// MaxDocumentBytes caps a single upload.
const MaxDocumentBytes = 10 << 20

type UploadDocumentRequest struct {
	DocumentType DocumentType `form:"document_type" binding:"required,document_type"`
	Description  string       `form:"description"`
}
