package email

import "fmt"

type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"required,email"`
}

// Notification is one of the closed set of variants below. Each carries only
// the fields its template type needs.
type Notification interface {
	Type() TemplateType
	Recipient() Recipient
	fields() Fields
}

// Flatten maps a notification onto the provider's flat field contract.
func Flatten(n Notification) Fields {
	f := n.fields()
	to := n.Recipient()
	f.ToEmail = to.Email
	f.ToName = to.Name
	f.TemplateType = n.Type()
	return f.withDefaults()
}

type AppointmentConfirmation struct {
	To       Recipient
	Date     string
	Time     string
	Service  string
	Dentist  string
	Duration int
}

func (AppointmentConfirmation) Type() TemplateType     { return TypeAppointmentConfirmation }
func (n AppointmentConfirmation) Recipient() Recipient { return n.To }

func (n AppointmentConfirmation) fields() Fields {
	duration := n.Duration
	if duration <= 0 {
		duration = 60
	}
	return Fields{
		Subject:             "Appointment Confirmation - Makhanda Smiles",
		AppointmentDate:     n.Date,
		AppointmentTime:     n.Time,
		ServiceType:         n.Service,
		DentistName:         n.Dentist,
		AppointmentDuration: minutes(duration),
		CustomContent:       fmt.Sprintf("Your %s appointment has been confirmed.", n.Service),
	}
}

type Reminder24h struct {
	To      Recipient
	Date    string
	Time    string
	Service string
}

func (Reminder24h) Type() TemplateType     { return TypeReminder24h }
func (n Reminder24h) Recipient() Recipient { return n.To }

func (n Reminder24h) fields() Fields {
	return Fields{
		Subject:         "Reminder: Your Appointment Tomorrow",
		AppointmentDate: n.Date,
		AppointmentTime: n.Time,
		ServiceType:     n.Service,
		CustomContent: fmt.Sprintf(
			"This is a friendly reminder that your %s appointment is scheduled for tomorrow at %s. Please arrive 10 minutes early.",
			n.Service, n.Time),
	}
}

type Reminder2h struct {
	To      Recipient
	Time    string
	Service string
}

func (Reminder2h) Type() TemplateType     { return TypeReminder2h }
func (n Reminder2h) Recipient() Recipient { return n.To }

func (n Reminder2h) fields() Fields {
	return Fields{
		Subject:         "Reminder: Your Appointment in 2 Hours",
		AppointmentTime: n.Time,
		ServiceType:     n.Service,
		CustomContent: fmt.Sprintf(
			"Don't forget! Your %s appointment is in 2 hours at %s. We're looking forward to seeing you!",
			n.Service, n.Time),
	}
}

type FollowUp struct {
	To            Recipient
	Service       string
	LoyaltyPoints int
}

func (FollowUp) Type() TemplateType     { return TypeFollowUp }
func (n FollowUp) Recipient() Recipient { return n.To }

func (n FollowUp) fields() Fields {
	var loyalty string
	if n.LoyaltyPoints > 0 {
		loyalty = fmt.Sprintf("You've also earned %d loyalty points!", n.LoyaltyPoints)
	}
	return Fields{
		Subject:         "Thank You - How Was Your Visit?",
		ServiceType:     n.Service,
		LoyaltyPoints:   n.LoyaltyPoints,
		FollowUpMessage: loyalty,
		CustomContent: fmt.Sprintf(
			"Thank you for choosing Makhanda Smiles for your %s. We hope you had an excellent experience. "+
				"If you have any questions or concerns, please don't hesitate to contact us.",
			n.Service),
	}
}

type SupportResponse struct {
	To       Recipient
	TicketID string
	Message  string
}

func (SupportResponse) Type() TemplateType     { return TypeSupportResponse }
func (n SupportResponse) Recipient() Recipient { return n.To }

func (n SupportResponse) fields() Fields {
	return Fields{
		Subject:       fmt.Sprintf("Support Response - Ticket #%s", n.TicketID),
		TicketID:      n.TicketID,
		MessageBody:   n.Message,
		CustomContent: n.Message,
	}
}

type ContactAcknowledgement struct {
	To      Recipient
	Subject string
}

func (ContactAcknowledgement) Type() TemplateType     { return TypeContactAcknowledgement }
func (n ContactAcknowledgement) Recipient() Recipient { return n.To }

func (n ContactAcknowledgement) fields() Fields {
	return Fields{
		Subject:     "Thank You - We Received Your Message",
		MessageBody: n.Subject,
		CustomContent: "Thank you for contacting Makhanda Smiles. We have received your message " +
			"and will get back to you as soon as possible.",
	}
}

type LeadResponse struct {
	To      Recipient
	Message string
}

func (LeadResponse) Type() TemplateType     { return TypeLeadResponse }
func (n LeadResponse) Recipient() Recipient { return n.To }

func (n LeadResponse) fields() Fields {
	return Fields{
		Subject:       "Welcome to Makhanda Smiles",
		MessageBody:   n.Message,
		CustomContent: n.Message,
	}
}

// Request is the inbound JSON form of a notification, used where callers
// pick the variant at runtime (batch sends).
type Request struct {
	Type          TemplateType `json:"type" binding:"required"`
	To            Recipient    `json:"to" binding:"required"`
	Date          string       `json:"date"`
	Time          string       `json:"time"`
	Service       string       `json:"service"`
	Dentist       string       `json:"dentist"`
	Duration      int          `json:"duration"`
	LoyaltyPoints int          `json:"loyalty_points"`
	TicketID      string       `json:"ticket_id"`
	Subject       string       `json:"subject"`
	Message       string       `json:"message"`
}

// Notification builds the variant named by r.Type.
func (r Request) Notification() (Notification, error) {
	switch r.Type {
	case TypeAppointmentConfirmation:
		return AppointmentConfirmation{To: r.To, Date: r.Date, Time: r.Time, Service: r.Service, Dentist: r.Dentist, Duration: r.Duration}, nil
	case TypeReminder24h:
		return Reminder24h{To: r.To, Date: r.Date, Time: r.Time, Service: r.Service}, nil
	case TypeReminder2h:
		return Reminder2h{To: r.To, Time: r.Time, Service: r.Service}, nil
	case TypeFollowUp:
		return FollowUp{To: r.To, Service: r.Service, LoyaltyPoints: r.LoyaltyPoints}, nil
	case TypeSupportResponse:
		return SupportResponse{To: r.To, TicketID: r.TicketID, Message: r.Message}, nil
	case TypeContactAcknowledgement:
		return ContactAcknowledgement{To: r.To, Subject: r.Subject}, nil
	case TypeLeadResponse:
		return LeadResponse{To: r.To, Message: r.Message}, nil
	}
	return nil, fmt.Errorf("unknown template type %q", r.Type)
}
