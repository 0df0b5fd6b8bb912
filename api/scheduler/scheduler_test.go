package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRetrier struct {
	mock.Mock
}

func (m *mockRetrier) RetryGeocoding(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

func TestRetryGeocodingUsesBatchSize(t *testing.T) {
	r := new(mockRetrier)
	r.On("RetryGeocoding", mock.Anything, DefaultBatchSize).Return(3, nil).Once()

	NewScheduler(r, "*/15 * * * *").retryGeocoding()

	r.AssertExpectations(t)
}

func TestRetryGeocodingLogsErrors(t *testing.T) {
	r := new(mockRetrier)
	r.On("RetryGeocoding", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()

	assert.NotPanics(t, NewScheduler(r, "@every 1m").retryGeocoding)
	r.AssertExpectations(t)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(new(mockRetrier), "every tuesday")
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(new(mockRetrier), "@every 1h")
	assert.NoError(t, s.Start())
	s.Stop()
}
