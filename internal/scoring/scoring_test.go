package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crediflow/internal/cache"
	"crediflow/internal/llm"
	"crediflow/internal/metrics"
)

const model = "google/gemini-2.0-flash-001"

func newClient() *llm.MockClient {
	c := new(llm.MockClient)
	c.On("Model").Return(model)
	return c
}

func TestScoreMissingCredential(t *testing.T) {
	svc := NewService(nil, Options{Model: "custom/model"})

	res := svc.Score(context.Background(), "prompt")

	assert.Equal(t, FailureMissingCredential, res.Failure)
	assert.False(t, res.OK())
	assert.Equal(t, "Cannot calculate: Missing OpenRouter API Key/Client.", res.String())
	assert.Equal(t, "custom/model", svc.Model())
}

func TestScoreSuccess(t *testing.T) {
	client := newClient()
	client.On("Complete", mock.Anything, "prompt").Return("Credit score: 742", nil).Once()
	m := metrics.New()

	svc := NewService(client, Options{Metrics: m, Timeout: time.Second})
	res := svc.Score(context.Background(), "prompt")

	require.True(t, res.OK())
	assert.Equal(t, "Credit score: 742", res.String())
	assert.Equal(t, model, res.Model)
	assert.False(t, res.Cached)
	assert.Equal(t, uint64(1), remoteCalls(t, m))
	client.AssertExpectations(t)
}

func remoteCalls(t *testing.T, m *metrics.Metrics) uint64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "crediflow_scoring_latency_seconds" {
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestScoreLatencyOnlyCountsRemoteCalls(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		m := metrics.New()

		res := NewService(nil, Options{Metrics: m}).Score(context.Background(), "p")

		assert.Equal(t, FailureMissingCredential, res.Failure)
		assert.Zero(t, remoteCalls(t, m))
	})

	t.Run("cache hit", func(t *testing.T) {
		m := metrics.New()
		client := newClient()
		c := new(cache.MockCache)
		c.On("GetReport", mock.Anything, cache.Key(model, "p")).Return(&cache.Report{Model: model, Text: "cached 700"}, nil)

		res := NewService(client, Options{Cache: c, Metrics: m}).Score(context.Background(), "p")

		assert.True(t, res.Cached)
		assert.Zero(t, remoteCalls(t, m))
	})

	t.Run("remote error", func(t *testing.T) {
		m := metrics.New()
		client := newClient()
		client.On("Complete", mock.Anything, "p").Return("", errors.New("status 502: bad gateway"))
		c := new(cache.MockCache)
		c.On("GetReport", mock.Anything, cache.Key(model, "p")).Return(nil, nil)

		res := NewService(client, Options{Cache: c, Metrics: m}).Score(context.Background(), "p")

		assert.Equal(t, FailureRemoteError, res.Failure)
		assert.Equal(t, uint64(1), remoteCalls(t, m))
	})
}

func TestScoreFailures(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		err         error
		wantFailure Failure
		wantMessage string
	}{
		{"remote error", "", errors.New("status 401: unauthorized"), FailureRemoteError, "Error communicating with OpenRouter: status 401: unauthorized"},
		{"no choices", "", llm.ErrNoChoices, FailureEmptyResponse, "Error communicating with OpenRouter: empty response"},
		{"blank completion", "  \n", nil, FailureEmptyResponse, "Error communicating with OpenRouter: empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient()
			client.On("Complete", mock.Anything, "p").Return(tt.text, tt.err)
			c := new(cache.MockCache)
			c.On("GetReport", mock.Anything, cache.Key(model, "p")).Return(nil, nil)

			res := NewService(client, Options{Cache: c}).Score(context.Background(), "p")

			assert.Equal(t, tt.wantFailure, res.Failure)
			assert.Equal(t, tt.wantMessage, res.String())
			c.AssertNotCalled(t, "SetReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestScoreUsesCache(t *testing.T) {
	key := cache.Key(model, "p")

	t.Run("hit skips the network", func(t *testing.T) {
		client := newClient()
		c := new(cache.MockCache)
		c.On("GetReport", mock.Anything, key).Return(&cache.Report{Model: model, Text: "cached 700"}, nil)

		res := NewService(client, Options{Cache: c}).Score(context.Background(), "p")

		assert.True(t, res.OK())
		assert.True(t, res.Cached)
		assert.Equal(t, "cached 700", res.String())
		client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("miss stores the result", func(t *testing.T) {
		client := newClient()
		client.On("Complete", mock.Anything, "p").Return("fresh 650", nil)
		c := new(cache.MockCache)
		c.On("GetReport", mock.Anything, key).Return(nil, nil)
		c.On("SetReport", mock.Anything, key, mock.MatchedBy(func(r *cache.Report) bool {
			return r.Text == "fresh 650" && r.Model == model
		}), time.Hour).Return(nil)

		res := NewService(client, Options{Cache: c, CacheTTL: time.Hour}).Score(context.Background(), "p")

		assert.Equal(t, "fresh 650", res.String())
		c.AssertExpectations(t)
	})

	t.Run("cache errors are not fatal", func(t *testing.T) {
		client := newClient()
		client.On("Complete", mock.Anything, "p").Return("fresh 650", nil)
		c := new(cache.MockCache)
		c.On("GetReport", mock.Anything, key).Return(nil, errors.New("redis down"))
		c.On("SetReport", mock.Anything, key, mock.Anything, mock.Anything).Return(errors.New("redis down"))

		res := NewService(client, Options{Cache: c}).Score(context.Background(), "p")

		assert.True(t, res.OK())
		assert.Equal(t, "fresh 650", res.Text)
	})
}

func TestScoreRecoversPanics(t *testing.T) {
	client := newClient()
	client.On("Complete", mock.Anything, "p").Run(func(mock.Arguments) { panic("boom") })

	var res Result
	assert.NotPanics(t, func() {
		res = NewService(client, Options{}).Score(context.Background(), "p")
	})
	assert.Equal(t, FailureRemoteError, res.Failure)
	assert.Contains(t, res.String(), "panic: boom")
}
