package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/hdb-resale-go/internal/features"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

// MockModel is a testify mock of Model.
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Predict(ctx context.Context, x []float64) (float64, error) {
	args := m.Called(ctx, x)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockModel) FeatureNames() []string {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}

func (m *MockModel) Version() string {
	return m.Called().String(0)
}

func threeColumnSchema(t *testing.T) *features.Schema {
	t.Helper()
	s, err := features.NewSchema([]string{"a", "b", "c"})
	require.NoError(t, err)
	return s
}

func TestLinearModel(t *testing.T) {
	m, err := NewLinearModel([]string{"a", "b"}, []float64{2, 3}, 10, "v1")
	require.NoError(t, err)

	y, err := m.Predict(context.Background(), []float64{1, 4})
	require.NoError(t, err)
	assert.Equal(t, 24.0, y)
	assert.Equal(t, "v1", m.Version())
	assert.Equal(t, []string{"a", "b"}, m.FeatureNames())

	_, err = m.Predict(context.Background(), []float64{1})
	assert.Error(t, err)

	_, err = NewLinearModel([]string{"a"}, []float64{1, 2}, 0, "")
	assert.Error(t, err)
}

func TestForestModel(t *testing.T) {
	// x[0] <= 50 → 100 else 200
	stump := Tree{Nodes: []TreeNode{
		{Feature: 0, Threshold: 50, Left: 1, Right: 2},
		{Left: LeafChild, Right: LeafChild, Value: 100},
		{Left: LeafChild, Right: LeafChild, Value: 200},
	}}
	constant := Tree{Nodes: []TreeNode{{Left: LeafChild, Right: LeafChild, Value: 400}}}

	m, err := NewForestModel([]string{"a", "b"}, []Tree{stump, constant}, "rf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Trees())

	y, err := m.Predict(context.Background(), []float64{50, 0})
	require.NoError(t, err)
	assert.Equal(t, 250.0, y)

	y, err = m.Predict(context.Background(), []float64{51, 0})
	require.NoError(t, err)
	assert.Equal(t, 300.0, y)
}

func TestForestModel_RejectsBadTrees(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
	}{
		{name: "empty", tree: Tree{}},
		{name: "self loop", tree: Tree{Nodes: []TreeNode{{Feature: 0, Left: 0, Right: 0}}}},
		{name: "child out of range", tree: Tree{Nodes: []TreeNode{{Feature: 0, Left: 1, Right: 5}, {Left: LeafChild, Right: LeafChild}}}},
		{name: "feature out of range", tree: Tree{Nodes: []TreeNode{
			{Feature: 9, Left: 1, Right: 2},
			{Left: LeafChild, Right: LeafChild},
			{Left: LeafChild, Right: LeafChild},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewForestModel([]string{"a"}, []Tree{tt.tree}, "")
			assert.Error(t, err)
		})
	}

	_, err := NewForestModel([]string{"a"}, nil, "")
	assert.Error(t, err)
}

func TestRemoteModel(t *testing.T) {
	var got remoteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"predictions":[512345.678]}`))
	}))
	defer srv.Close()

	m, err := NewRemoteModel(srv.URL, []string{"a", "b"}, "remote-1", 0)
	require.NoError(t, err)

	y, err := m.Predict(context.Background(), []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 512345.678, y)
	assert.Equal(t, [][]float64{{1, 2}}, got.Instances)
	assert.Equal(t, []string{"a", "b"}, got.Columns)
	assert.Equal(t, srv.URL, m.Endpoint())
}

func TestRemoteModel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error with message", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantMsg: "boom"},
		{name: "server error plain", status: http.StatusBadGateway, body: "bad gateway", wantMsg: "502"},
		{name: "wrong prediction count", status: http.StatusOK, body: `{"predictions":[]}`, wantMsg: "0 predictions"},
		{name: "invalid json", status: http.StatusOK, body: `nope`, wantMsg: "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m, err := NewRemoteModel(srv.URL, nil, "", 0)
			require.NoError(t, err)
			assert.Nil(t, m.FeatureNames())

			_, err = m.Predict(context.Background(), []float64{1})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	_, err := NewRemoteModel("  ", nil, "", 0)
	assert.Error(t, err)
}

func TestAdapter_Predict(t *testing.T) {
	m := new(MockModel)
	m.On("Predict", mock.Anything, []float64{1, 2, 3}).Return(456789.123, nil)

	price, err := NewAdapter(m, threeColumnSchema(t)).Predict(context.Background(), features.Vector{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("456789.12").Equal(price), price.String())
	m.AssertExpectations(t)
}

func TestAdapter_WidthMismatchSkipsModel(t *testing.T) {
	m := new(MockModel)

	_, err := NewAdapter(m, threeColumnSchema(t)).Predict(context.Background(), features.Vector{1, 2})
	var sErr *utils.SchemaMismatchError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 3, sErr.Expected)
	assert.Equal(t, 2, sErr.Actual)
	m.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestAdapter_ModelFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *MockModel)
	}{
		{name: "error", setup: func(m *MockModel) {
			m.On("Predict", mock.Anything, mock.Anything).Return(0.0, errors.New("model exploded"))
		}},
		{name: "NaN", setup: func(m *MockModel) {
			m.On("Predict", mock.Anything, mock.Anything).Return(math.NaN(), nil)
		}},
		{name: "Inf", setup: func(m *MockModel) {
			m.On("Predict", mock.Anything, mock.Anything).Return(math.Inf(1), nil)
		}},
		{name: "panic", setup: func(m *MockModel) {
			m.On("Predict", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("index out of range") })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockModel)
			tt.setup(m)

			price, err := NewAdapter(m, threeColumnSchema(t)).Predict(context.Background(), features.Vector{0, 0, 0})
			var pErr *utils.PredictionError
			require.ErrorAs(t, err, &pErr)
			assert.True(t, price.IsZero())
		})
	}
}

func TestAdapter_NilSchemaOrModel(t *testing.T) {
	_, err := NewAdapter(new(MockModel), nil).Predict(context.Background(), features.Vector{1})
	var sErr *utils.SchemaMismatchError
	assert.ErrorAs(t, err, &sErr)

	_, err = NewAdapter(nil, threeColumnSchema(t)).Predict(context.Background(), features.Vector{1, 2, 3})
	var pErr *utils.PredictionError
	assert.ErrorAs(t, err, &pErr)
}
