package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// allowedNext is the appointment lifecycle. Completed and cancelled are terminal.
var allowedNext = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
}

// Valid reports whether s is one of the four lifecycle statuses.
func (s AppointmentStatus) Valid() bool {
	_, ok := allowedNext[s]
	return ok
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, candidate := range allowedNext[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func (s AppointmentStatus) NextStatuses() []AppointmentStatus {
	out := make([]AppointmentStatus, len(allowedNext[s]))
	copy(out, allowedNext[s])
	return out
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return s.Valid() && len(allowedNext[s]) == 0
}

type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientName     string            `db:"patient_name" json:"patient_name"`
	PatientEmail    string            `db:"patient_email" json:"patient_email"`
	PatientPhone    string            `db:"patient_phone" json:"patient_phone"`
	AppointmentDate string            `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string            `db:"appointment_time" json:"appointment_time"`
	ServiceType     string            `db:"service_type" json:"service_type"`
	Notes           string            `db:"notes" json:"notes"`
	Status          AppointmentStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

// StatusUpdate is a guarded status write. The write only applies when the
// stored row still has FromStatus and, if set, ExpectedUpdatedAt.
type StatusUpdate struct {
	ID                uuid.UUID
	FromStatus        AppointmentStatus
	ToStatus          AppointmentStatus
	ExpectedUpdatedAt *time.Time
	UpdatedAt         time.Time
}

type UpdateStatusRequest struct {
	Status            AppointmentStatus `json:"status" binding:"required,appointment_status"`
	ExpectedUpdatedAt *time.Time        `json:"expected_updated_at"`
}

// AppointmentFilters narrows a listing. Zero values are ignored. Dates are
// calendar dates in YYYY-MM-DD form; DateTo is exclusive.
type AppointmentFilters struct {
	Status       AppointmentStatus
	PatientEmail string
	Date         string
	DateFrom     string
	DateTo       string
}

// StatusFilter is the admin dashboard's listing filter.
type StatusFilter string

const (
	StatusFilterAll       StatusFilter = "all"
	StatusFilterPending   StatusFilter = "pending"
	StatusFilterConfirmed StatusFilter = "confirmed"
	StatusFilterCompleted StatusFilter = "completed"
)

func (f StatusFilter) Valid() bool {
	switch f {
	case StatusFilterAll, StatusFilterPending, StatusFilterConfirmed, StatusFilterCompleted:
		return true
	}
	return false
}

// Matches reports whether apt is visible under f.
func (f StatusFilter) Matches(apt *Appointment) bool {
	if f == StatusFilterAll {
		return true
	}
	return string(apt.Status) == string(f)
}

// PatientAppointments is the portal view of one patient's bookings.
type PatientAppointments struct {
	Upcoming []*Appointment `json:"upcoming"`
	Past     []*Appointment `json:"past"`
}

// AppointmentEvent is published on every appointment write.
type AppointmentEvent struct {
	Type          string            `json:"type"`
	AppointmentID uuid.UUID         `json:"appointment_id"`
	Status        AppointmentStatus `json:"status"`
	PreviousState AppointmentStatus `json:"previous_status,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentStatusChanged = "appointment.status_changed"
	AppointmentEventsChannel      = "appointments"
)

// AppointmentNotice names an email an admin can send about one appointment.
type AppointmentNotice string

const (
	NoticeConfirmation AppointmentNotice = "confirmation"
	NoticeReminder24h  AppointmentNotice = "reminder_24h"
	NoticeReminder2h   AppointmentNotice = "reminder_2h"
	NoticeFollowUp     AppointmentNotice = "followup"
)

type NotifyAppointmentRequest struct {
	Type          AppointmentNotice `json:"type" binding:"required,oneof=confirmation reminder_24h reminder_2h followup"`
	Dentist       string            `json:"dentist"`
	LoyaltyPoints int               `json:"loyalty_points" binding:"gte=0"`
}
