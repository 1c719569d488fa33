package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/model"
	"github.com/makhanda-smiles/portal-api/pkg/errors"
)

// Persister receives the one write a wizard makes.
type Persister interface {
	Create(ctx context.Context, appointment *model.Appointment) error
}

// Clock returns the current instant.
type Clock func() time.Time

// Wizard is the four-step booking flow for one visitor. Methods are safe for
// concurrent use; Submit holds the lock across the persistence call so at
// most one insert happens per wizard.
type Wizard struct {
	mu      sync.Mutex
	id      string
	step    model.BookingStep
	draft   model.BookingDraft
	receipt *model.Appointment

	now Clock
	loc *time.Location
}

func NewWizard(id string, now Clock, loc *time.Location) *Wizard {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Wizard{
		id:   id,
		step: model.StepSelectService,
		now:  now,
		loc:  loc,
	}
}

func (w *Wizard) ID() string { return w.id }

// State returns a snapshot.
func (w *Wizard) State() model.BookingState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Wizard) snapshot() model.BookingState {
	st := model.BookingState{
		ID:       w.id,
		Step:     w.step,
		StepName: w.step.String(),
		Draft:    w.draft,
	}
	if w.receipt != nil {
		r := *w.receipt
		st.Receipt = &r
	}
	return st
}

// SelectService picks a catalog entry and advances to date/time selection.
func (w *Wizard) SelectService(name string) (model.BookingState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(model.StepSelectService); err != nil {
		return w.snapshot(), err
	}
	if name == "" {
		return w.snapshot(), errors.BadRequest("please select a service", nil)
	}
	if _, ok := model.LookupService(name); !ok {
		return w.snapshot(), errors.BadRequest("unknown service: "+name, nil)
	}

	w.draft.Service = name
	w.step = model.StepSelectDateTime
	return w.snapshot(), nil
}

// SetDateTime records the date and slot. An empty value keeps what was
// chosen before. A rejected value leaves the draft untouched.
func (w *Wizard) SetDateTime(date, slot string) (model.BookingState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(model.StepSelectDateTime); err != nil {
		return w.snapshot(), err
	}
	if date != "" {
		if err := w.checkDate(date); err != nil {
			return w.snapshot(), err
		}
	}
	if slot != "" && !model.IsTimeSlot(slot) {
		return w.snapshot(), errors.BadRequest("unknown time slot: "+slot, nil)
	}

	if date != "" {
		w.draft.Date = date
	}
	if slot != "" {
		w.draft.Time = slot
	}
	return w.snapshot(), nil
}

// Continue leaves date/time selection once both are set.
func (w *Wizard) Continue() (model.BookingState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(model.StepSelectDateTime); err != nil {
		return w.snapshot(), err
	}
	if w.draft.Date == "" || w.draft.Time == "" {
		return w.snapshot(), errors.BadRequest("please select both a date and a time", nil)
	}
	if err := w.checkDate(w.draft.Date); err != nil {
		return w.snapshot(), err
	}

	w.step = model.StepEnterContactInfo
	return w.snapshot(), nil
}

// SetContact stores the patient's details. Nothing is written.
func (w *Wizard) SetContact(fullName, email, phone, notes string) (model.BookingState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(model.StepEnterContactInfo); err != nil {
		return w.snapshot(), err
	}

	w.draft.FullName = fullName
	w.draft.Email = email
	w.draft.Phone = phone
	w.draft.Notes = notes
	return w.snapshot(), nil
}

// Submit persists the draft as a pending appointment. On failure the wizard
// stays on the contact step with the draft intact.
func (w *Wizard) Submit(ctx context.Context, p Persister) (model.BookingState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expect(model.StepEnterContactInfo); err != nil {
		return w.snapshot(), err
	}
	if w.draft.FullName == "" || w.draft.Email == "" || w.draft.Phone == "" {
		return w.snapshot(), errors.BadRequest("please fill in all required fields", nil)
	}
	if err := w.checkDate(w.draft.Date); err != nil {
		return w.snapshot(), err
	}
	if !model.IsTimeSlot(w.draft.Time) {
		return w.snapshot(), errors.BadRequest("unknown time slot: "+w.draft.Time, nil)
	}

	now := w.now()
	apt := &model.Appointment{
		ID:              uuid.New(),
		PatientName:     w.draft.FullName,
		PatientEmail:    w.draft.Email,
		PatientPhone:    w.draft.Phone,
		AppointmentDate: w.draft.Date,
		AppointmentTime: w.draft.Time,
		ServiceType:     w.draft.Service,
		Notes:           w.draft.Notes,
		Status:          model.AppointmentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := p.Create(ctx, apt); err != nil {
		return w.snapshot(), errors.Unavailable("failed to book appointment, please try again", err)
	}

	w.receipt = apt
	w.step = model.StepConfirmed
	return w.snapshot(), nil
}

// Back returns to the previous step, keeping entered values.
func (w *Wizard) Back() (model.BookingState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case model.StepSelectDateTime:
		w.step = model.StepSelectService
	case model.StepEnterContactInfo:
		w.step = model.StepSelectDateTime
	case model.StepConfirmed:
		return w.snapshot(), errors.InvalidTransition("booking is confirmed, start a new booking instead")
	default:
		return w.snapshot(), errors.InvalidTransition("already at the first step")
	}
	return w.snapshot(), nil
}

// Confirmed reports whether the wizard reached its terminal step.
func (w *Wizard) Confirmed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step == model.StepConfirmed
}

func (w *Wizard) expect(step model.BookingStep) error {
	if w.step == step {
		return nil
	}
	if w.step == model.StepConfirmed {
		return errors.InvalidTransition("booking is confirmed, start a new booking instead")
	}
	return errors.InvalidTransition("booking is at step " + w.step.String() + ", not " + step.String())
}

// checkDate accepts today or later, compared as calendar dates in the
// clinic's time zone.
func (w *Wizard) checkDate(date string) error {
	day, err := time.ParseInLocation(model.DateLayout, date, w.loc)
	if err != nil {
		return errors.BadRequest("date must be in YYYY-MM-DD format", err)
	}
	y, m, d := w.now().In(w.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, w.loc)
	if day.Before(today) {
		return errors.BadRequest("please choose today or a later date", nil)
	}
	return nil
}
