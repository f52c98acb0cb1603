package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStatus_Valid(t *testing.T) {
	assert.True(t, ListReading.Valid())
	assert.True(t, ListFinished.Valid())
	assert.True(t, ListUnread.Valid())
	assert.False(t, ListStatus("archived").Valid())
	assert.False(t, ListStatus("").Valid())
}

func TestDeriveList(t *testing.T) {
	started := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	finished := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		started  *time.Time
		finished *time.Time
		want     ListStatus
	}{
		{"neither", nil, nil, ListUnread},
		{"started_only", &started, nil, ListReading},
		{"finished_only", nil, &finished, ListFinished},
		{"finished_wins", &started, &finished, ListFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Book{Started: tt.started, Finished: tt.finished}
			assert.Equal(t, tt.want, b.DeriveList())
		})
	}
}

func TestApplyMigration(t *testing.T) {
	started := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	finished := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)

	b := &Book{Started: &started, Finished: &finished}
	b.ApplyMigration()

	assert.True(t, b.Migrated)
	assert.Equal(t, ListFinished, b.List)
	require.NotNil(t, b.LastStarted)
	assert.Equal(t, started, *b.LastStarted)
	require.NotNil(t, b.LastFinished)
	assert.Equal(t, finished, *b.LastFinished)
	assert.Nil(t, b.Started)
	assert.Nil(t, b.Finished)
}

func TestNeedsMigration(t *testing.T) {
	assert.True(t, (&Book{}).NeedsMigration())
	assert.False(t, (&Book{Migrated: true}).NeedsMigration())
}
