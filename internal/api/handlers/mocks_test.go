package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/hdb-resale-go/internal/cache"
	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/models"
	"github.com/irfndi/hdb-resale-go/internal/pipeline"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, requestID string, req models.PredictionRequest) (*pipeline.Result, error) {
	args := m.Called(ctx, requestID, req)
	if r := args.Get(0); r != nil {
		return r.(*pipeline.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRunner) Strategy() features.Strategy {
	return features.Strategy(m.Called().String(0))
}

func (m *MockRunner) ModelVersion() string {
	return m.Called().String(0)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Recent(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	args := m.Called(ctx, limit)
	if r := args.Get(0); r != nil {
		return r.([]models.PredictionRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockHistory) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCacheAdmin struct {
	mock.Mock
}

func (m *MockCacheAdmin) GetStats() cache.PredictionCacheStats {
	return m.Called().Get(0).(cache.PredictionCacheStats)
}

func (m *MockCacheAdmin) Clear(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
