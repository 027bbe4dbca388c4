package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/gradebook/internal/models"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{models.NewError("AddStudent", models.ErrValidation, "bad"), "validation"},
		{models.NewError("AddStudent", models.ErrDuplicateID, "dup"), "duplicate_id"},
		{fmt.Errorf("wrapped: %w", models.NewError("RemoveStudent", models.ErrNotFound, "missing")), "not_found"},
		{models.NewError("RenameSubject", models.ErrConflict, "taken"), "conflict"},
		{errors.New("disk full"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("AddStudent", nil)
	m.ObserveOperation("AddStudent", nil)
	m.ObserveOperation("AddStudent", models.NewError("AddStudent", models.ErrValidation, "bad"))
	m.ObserveSave(3*time.Millisecond, nil)
	m.SetRegistrySize(4, 2, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("AddStudent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("AddStudent", "validation")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.students))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.subjects))
	assert.Equal(t, 1, testutil.CollectAndCount(m.saveDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("AddStudent", nil)
		m.ObserveSave(time.Second, nil)
		m.SetRegistrySize(1, 1, 1)
	})
}
