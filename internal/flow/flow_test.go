package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"salon/internal/apperr"
	"salon/internal/metrics"
)

func TestRunSuccess(t *testing.T) {
	before := testutil.ToFloat64(metrics.FormSubmissions.WithLabelValues("test_ok", "ok"))
	f := New("test_ok")
	submitted := false

	err := f.Run(context.Background(), func() error { return nil }, func(context.Context) error {
		assert.Equal(t, Submitting, f.State())
		submitted = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, Succeeded, f.State())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FormSubmissions.WithLabelValues("test_ok", "ok")))

	err = f.Run(context.Background(), nil, func(context.Context) error { return nil })
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRunValidationSkipsSubmit(t *testing.T) {
	f := New("test_invalid")
	calls := 0

	err := f.Run(context.Background(), func() error {
		return errors.New("age must be positive")
	}, func(context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, Idle, f.State())
	assert.Equal(t, err, f.Err())
}

func TestRunFailureReturnsToIdle(t *testing.T) {
	f := New("test_failed")
	remote := apperr.New(apperr.KindUnavailable, "store down")

	err := f.Run(context.Background(), nil, func(context.Context) error { return remote })
	assert.ErrorIs(t, err, remote)
	assert.Equal(t, Idle, f.State())

	// the same form can be resubmitted after a failure
	err = f.Run(context.Background(), nil, func(context.Context) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, Succeeded, f.State())
	assert.NoError(t, f.Err())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "state(9)", State(9).String())
}
