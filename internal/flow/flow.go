// Package flow models the submit cycle shared by every form:
// idle -> validating -> submitting -> succeeded, or back to idle with the
// failure recorded. Input is never touched, so a failed attempt can be
// corrected and resubmitted.
package flow

import (
	"context"
	"fmt"
	"log"

	"salon/internal/apperr"
	"salon/internal/metrics"
)

// State is a step of the submit cycle.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Succeeded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Form tracks one form's submit cycle.
type Form struct {
	name  string
	state State
	err   error
}

func New(name string) *Form {
	return &Form{name: name, state: Idle}
}

func (f *Form) Name() string { return f.name }
func (f *Form) State() State { return f.state }
func (f *Form) Err() error   { return f.err }

// Run validates and, only if validation passes, submits. A form that has
// already succeeded cannot be submitted again.
func (f *Form) Run(ctx context.Context, validate func() error, submit func(ctx context.Context) error) error {
	if f.state != Idle {
		return apperr.Newf(apperr.KindConflict, "%s is %s", f.name, f.state)
	}

	f.state = Validating
	if validate != nil {
		if err := validate(); err != nil {
			if !apperr.Is(err, apperr.KindValidation) {
				err = apperr.New(apperr.KindValidation, err.Error())
			}
			return f.fail("invalid", err)
		}
	}

	f.state = Submitting
	if err := submit(ctx); err != nil {
		log.Printf("%s: submit failed: %v", f.name, err)
		return f.fail("failed", err)
	}

	f.state = Succeeded
	f.err = nil
	metrics.FormSubmissions.WithLabelValues(f.name, "ok").Inc()
	return nil
}

func (f *Form) fail(outcome string, err error) error {
	f.state = Idle
	f.err = err
	metrics.FormSubmissions.WithLabelValues(f.name, outcome).Inc()
	return err
}
