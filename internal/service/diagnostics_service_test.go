package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

func TestDiagnosticsService_Run_Healthy(t *testing.T) {
	stats := new(MockStatsRepository)
	cache := new(MockCacheRepository)
	records := new(MockTestRecordRepository)
	newest := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	stats.On("Ping", mock.Anything).Return(nil)
	cache.On("Ping", mock.Anything).Return(nil)
	for i, table := range DiagnosticTables {
		stats.On("CountRows", mock.Anything, table).Return(int64(i), nil)
	}
	records.On("Newest", mock.Anything).Return(&entity.TestRecord{CreatedAt: newest}, nil)

	rep := NewDiagnosticsService(stats, cache, records).Run(context.Background())
	assert.True(t, rep.OK)
	require.Len(t, rep.Checks, 2)
	require.Len(t, rep.Tables, len(DiagnosticTables))
	assert.Equal(t, "test_records", rep.Tables[1].Table)
	assert.Equal(t, int64(1), rep.Tables[1].Rows)
	require.NotNil(t, rep.NewestRecord)
	assert.Equal(t, newest, *rep.NewestRecord)
}

func TestDiagnosticsService_Run_Failures(t *testing.T) {
	stats := new(MockStatsRepository)
	cache := new(MockCacheRepository)
	records := new(MockTestRecordRepository)

	stats.On("Ping", mock.Anything).Return(nil)
	cache.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	stats.On("CountRows", mock.Anything, mock.Anything).Return(int64(0), nil)
	records.On("Newest", mock.Anything).Return(nil, apperrors.ErrNotFound)

	rep := NewDiagnosticsService(stats, cache, records).Run(context.Background())
	assert.False(t, rep.OK)
	assert.True(t, rep.Checks[0].OK)
	assert.False(t, rep.Checks[1].OK)
	assert.Equal(t, "connection refused", rep.Checks[1].Error)
	assert.Nil(t, rep.NewestRecord)
}
