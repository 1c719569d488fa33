package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for persisted records
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateLayout is the calendar date format used on the wire and in queries.
const DateLayout = "2006-01-02"

type Patient struct {
	Base
	FullName string `json:"full_name" db:"full_name"`
	Email    string `json:"email" db:"email"`
	Phone    string `json:"phone" db:"phone"`
}

type PatientFilters struct {
	CreatedSince *time.Time
}

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"

	LeadSourceContactForm = "Contact Form"
)

type Lead struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Phone     string     `json:"phone" db:"phone"`
	Source    string     `json:"source" db:"source"`
	Status    LeadStatus `json:"status" db:"status"`
	Notes     string     `json:"notes" db:"notes"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type CreateLeadRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	TotalPatients        int `json:"total_patients"`
	AppointmentsToday    int `json:"appointments_today"`
	PendingAppointments  int `json:"pending_appointments"`
	NewPatientsThisMonth int `json:"new_patients_this_month"`
	RevenueThisMonth     int `json:"revenue_this_month"`
}

type RespondLeadRequest struct {
	Message string `json:"message" binding:"required"`
}
