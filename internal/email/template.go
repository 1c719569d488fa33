package email

import "strconv"

// TemplateType discriminates the single shared template.
type TemplateType string

const (
	TypeAppointmentConfirmation TemplateType = "appointment_confirmation"
	TypeReminder24h             TemplateType = "appointment_reminder_24h"
	TypeReminder2h              TemplateType = "appointment_reminder_2h"
	TypeFollowUp                TemplateType = "appointment_followup"
	TypeSupportResponse         TemplateType = "support_ticket_response"
	TypeContactAcknowledgement  TemplateType = "contact_form_confirmation"
	TypeLeadResponse            TemplateType = "lead_response"
)

// TemplateID is the one template every notification renders through.
const TemplateID = "dentist_email"

const (
	defaultDentist  = "Makhanda Smiles Team"
	practicePhone   = "+27 (0)123 456 7890"
	practiceAddress = "Makhanda, South Africa"
	notApplicable   = "N/A"
)

// Fields is the flat field bag the email provider renders. It is only built
// from a Notification, never by callers.
type Fields struct {
	ToEmail             string       `json:"to_email"`
	ToName              string       `json:"to_name"`
	Subject             string       `json:"subject"`
	TemplateType        TemplateType `json:"template_type"`
	AppointmentDate     string       `json:"appointment_date"`
	AppointmentTime     string       `json:"appointment_time"`
	AppointmentDuration string       `json:"appointment_duration"`
	ServiceType         string       `json:"service_type"`
	DentistName         string       `json:"dentist_name"`
	PracticePhone       string       `json:"practice_phone"`
	PracticeAddress     string       `json:"practice_address"`
	LoyaltyPoints       int          `json:"loyalty_points"`
	MessageBody         string       `json:"message_body"`
	TicketID            string       `json:"ticket_id"`
	FollowUpMessage     string       `json:"follow_up_message"`
	CustomContent       string       `json:"custom_content"`
}

func (f Fields) withDefaults() Fields {
	f.AppointmentDate = orDefault(f.AppointmentDate, notApplicable)
	f.AppointmentTime = orDefault(f.AppointmentTime, notApplicable)
	f.AppointmentDuration = orDefault(f.AppointmentDuration, notApplicable)
	f.ServiceType = orDefault(f.ServiceType, notApplicable)
	f.DentistName = orDefault(f.DentistName, defaultDentist)
	f.PracticePhone = orDefault(f.PracticePhone, practicePhone)
	f.PracticeAddress = orDefault(f.PracticeAddress, practiceAddress)
	return f
}

// Map returns the fields keyed by their template names.
func (f Fields) Map() map[string]interface{} {
	return map[string]interface{}{
		"to_email":             f.ToEmail,
		"to_name":              f.ToName,
		"subject":              f.Subject,
		"template_type":        string(f.TemplateType),
		"appointment_date":     f.AppointmentDate,
		"appointment_time":     f.AppointmentTime,
		"appointment_duration": f.AppointmentDuration,
		"service_type":         f.ServiceType,
		"dentist_name":         f.DentistName,
		"practice_phone":       f.PracticePhone,
		"practice_address":     f.PracticeAddress,
		"loyalty_points":       f.LoyaltyPoints,
		"message_body":         f.MessageBody,
		"ticket_id":            f.TicketID,
		"follow_up_message":    f.FollowUpMessage,
		"custom_content":       f.CustomContent,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func minutes(n int) string {
	return strconv.Itoa(n) + " minutes"
}
