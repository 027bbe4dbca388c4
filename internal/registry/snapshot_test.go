package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/gradebook/internal/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	r := newRegistry()
	require.True(t, r.AddSubjectName("Science"))
	require.True(t, r.AddSubjectName("Math"))
	require.True(t, r.AddClassName("12C"))
	require.NoError(t, r.AddStudent(models.NewStudent("S002", "Budi", "10B")))
	require.NoError(t, r.AddStudent(models.NewStudent("S001", "Ana", "10A")))
	require.NoError(t, r.AddGrade("S001", "Math", 80))
	require.NoError(t, r.AddGrade("S002", "Science", 55.5))

	loaded, err := FromSnapshot(r.Snapshot(), r.Thresholds())
	require.NoError(t, err)

	assert.Equal(t, r.Snapshot(), loaded.Snapshot())
	assert.Equal(t, []string{"10A", "10B", "12C"}, loaded.ClassNames())
	assert.Equal(t, []string{"Math", "Science"}, loaded.SubjectNames())

	students := loaded.Students()
	require.Len(t, students, 2)
	assert.Equal(t, "S002", students[0].ID(), "insertion order preserved")
	assert.Equal(t, []string{"Math", "Science"}, students[1].SubjectView())
	assert.InDelta(t, 40.0, students[1].Average(), 0.0001)
}

func TestFromSnapshot(t *testing.T) {
	th := models.DefaultThresholds()

	t.Run("nil snapshot is empty registry", func(t *testing.T) {
		r, err := FromSnapshot(nil, th)
		require.NoError(t, err)
		assert.Equal(t, 0, r.StudentCount())
		assert.Equal(t, models.EmptySnapshot(), r.Snapshot())
	})

	t.Run("normalizes name lists", func(t *testing.T) {
		r, err := FromSnapshot(&models.Snapshot{
			Students:     []models.StudentRecord{{ID: "S001", Name: "Ana", Class: "11A"}},
			ClassNames:   []string{"10B", "10A", "10b"},
			SubjectNames: []string{"Math", "math", "Art"},
		}, th)
		require.NoError(t, err)
		assert.Equal(t, []string{"10A", "10B", "11A"}, r.ClassNames())
		assert.Equal(t, []string{"Art", "Math"}, r.SubjectNames())
		assert.Equal(t, []string{"Art", "Math"}, r.FindByID("S001").SubjectView())
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		_, err := FromSnapshot(&models.Snapshot{
			Students: []models.StudentRecord{
				{ID: "S001", Name: "Ana", Class: "10A"},
				{ID: "S001", Name: "Budi", Class: "10A"},
			},
		}, th)
		assert.ErrorIs(t, err, models.ErrDuplicateID)
	})

	t.Run("out of range grade rejected", func(t *testing.T) {
		_, err := FromSnapshot(&models.Snapshot{
			Students: []models.StudentRecord{
				{ID: "S001", Name: "Ana", Class: "10A", Grades: map[string]float64{"Math": 120}},
			},
		}, th)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}
