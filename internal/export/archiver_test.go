package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	bucket, object, contentType string
	data                        []byte
	err                         error
}

func (m *memoryWriter) WriteObject(_ context.Context, bucket, object, contentType string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.bucket, m.object, m.contentType, m.data = bucket, object, contentType, data
	return nil
}

func newTestArchiver(w ObjectWriter, bucket string) *Archiver {
	a := NewArchiver(w, bucket, "", zerolog.Nop())
	a.now = func() time.Time { return time.Date(2025, 7, 4, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)) }
	a.newID = func() string { return "snap-1" }
	return a
}

func TestArchive(t *testing.T) {
	w := &memoryWriter{}
	a := newTestArchiver(w, "finance-exports")
	list := []domain.Insight{
		{ID: "i1", UserID: "u1", Type: domain.InsightGoal, Title: "House goal behind schedule", Impact: 30,
			Data: &domain.GoalInsightData{GoalID: "g1", Progress: 20, Expected: 50, Deficit: 30}},
	}

	uri, err := a.Archive(context.Background(), "u1", list)

	require.NoError(t, err)
	// The date component uses UTC.
	assert.Equal(t, "gs://finance-exports/insights/u1/2025-07-05/snap-1.json", uri)
	assert.Equal(t, "finance-exports", w.bucket)
	assert.Equal(t, "application/json", w.contentType)

	var snap struct {
		UserID   string            `json:"userId"`
		Count    int               `json:"count"`
		Insights []json.RawMessage `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(w.data, &snap))
	assert.Equal(t, "u1", snap.UserID)
	assert.Equal(t, 1, snap.Count)

	var back domain.Insight
	require.NoError(t, json.Unmarshal(snap.Insights[0], &back))
	assert.IsType(t, &domain.GoalInsightData{}, back.Data)
}

func TestArchive_EmptyListWritesEmptyArray(t *testing.T) {
	w := &memoryWriter{}

	_, err := newTestArchiver(w, "b").Archive(context.Background(), "u1", nil)

	require.NoError(t, err)
	assert.Contains(t, string(w.data), `"insights": []`)
}

func TestArchive_Errors(t *testing.T) {
	_, err := newTestArchiver(&memoryWriter{}, "").Archive(context.Background(), "u1", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = newTestArchiver(&memoryWriter{}, "b").Archive(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = newTestArchiver(&memoryWriter{err: errors.New("403 forbidden")}, "b").Archive(context.Background(), "u1", nil)
	assert.ErrorContains(t, err, "403 forbidden")
}

func TestObjectName(t *testing.T) {
	at := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "exports/u9/2025-01-02/x.json", ObjectName("exports", "u9", at, "x"))
	assert.Equal(t, "a/b/u9/2025-01-02/x.json", ObjectName("a/b/", "u9", at, "x"))
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri            string
		bucket, object string
		wantErr        bool
	}{
		{uri: "gs://data/seeds/dev.yaml", bucket: "data", object: "seeds/dev.yaml"},
		{uri: "gs://data/x", bucket: "data", object: "x"},
		{uri: "gs://data", wantErr: true},
		{uri: "gs://data/", wantErr: true},
		{uri: "gs:///x", wantErr: true},
		{uri: "s3://data/x", wantErr: true},
		{uri: "configs/seed.yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.object, object)
		})
	}
}
