package model

// BookingStep is a stage of the booking wizard.
type BookingStep int

const (
	StepSelectService BookingStep = iota + 1
	StepSelectDateTime
	StepEnterContactInfo
	StepConfirmed
)

func (s BookingStep) String() string {
	switch s {
	case StepSelectService:
		return "select_service"
	case StepSelectDateTime:
		return "select_date_time"
	case StepEnterContactInfo:
		return "enter_contact_info"
	case StepConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// BookingDraft is the request under construction. It is never persisted.
type BookingDraft struct {
	Service  string `json:"service"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
}

// BookingState is a point-in-time view of a wizard.
type BookingState struct {
	ID       string       `json:"id"`
	Step     BookingStep  `json:"step"`
	StepName string       `json:"step_name"`
	Draft    BookingDraft `json:"draft"`
	Receipt  *Appointment `json:"receipt,omitempty"`
}

type SelectServiceRequest struct {
	Service string `json:"service" binding:"required,catalog_service"`
}

type SetDateTimeRequest struct {
	Date string `json:"date"`
	Time string `json:"time" binding:"omitempty,timeslot"`
}

type SetContactRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
}
