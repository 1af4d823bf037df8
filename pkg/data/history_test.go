package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRun_NilDB(t *testing.T) {
	assert.ErrorIs(t, SaveRun(nil, &Run{}), errDBNotInitialized)
	_, err := ListRuns(nil, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
}

func TestSaveRun_NilRun(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveRun(db, nil))
}

func TestSaveRun_ListRuns(t *testing.T) {
	db := setupTestDB(t)
	ranAt := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	first := &Run{
		RanAt:      ranAt,
		State:      "scored",
		ModelPath:  "/app/pkl/conversion_model.gob",
		ModelKind:  "logistic_regression",
		Capability: "probability",
		Rows:       2,
		Predictions: []*Prediction{
			{Row: 0, Probability: 0.75, Grade: "Hot"},
			{Row: 1, Probability: 0.25, Grade: "Cold"},
		},
	}
	require.NoError(t, SaveRun(db, first))
	assert.NotZero(t, first.ID)

	second := &Run{
		RanAt:       ranAt.Add(time.Minute),
		State:       "no_model",
		Rows:        1,
		Predictions: []*Prediction{{Row: 0, Probability: 0.1, Grade: "Cold"}},
	}
	require.NoError(t, SaveRun(db, second))

	runs, err := ListRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, "no_model", runs[0].State)
	assert.Empty(t, runs[0].ModelPath)

	got := runs[1]
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, ranAt.Equal(got.RanAt))
	assert.Equal(t, first.ModelPath, got.ModelPath)
	assert.Equal(t, first.ModelKind, got.ModelKind)
	assert.Equal(t, first.Capability, got.Capability)
	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, first.Predictions, got.Predictions)
}

func TestListRuns_Limit(t *testing.T) {
	db := setupTestDB(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, SaveRun(db, &Run{RanAt: time.Now(), State: "scored"}))
	}

	runs, err := ListRuns(db, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = ListRuns(db, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
	assert.Empty(t, runs[0].Predictions)
}
