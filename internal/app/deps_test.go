package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crediflow/internal/cache"
	"crediflow/internal/config"
	"crediflow/internal/llm"
	"crediflow/internal/logger"
)

func TestBuildLLM(t *testing.T) {
	log := logger.Discard()

	tests := []struct {
		name    string
		cfg     config.Config
		wantNil bool
		wantErr bool
	}{
		{"missing key disables scoring", config.Config{LLMProvider: "openrouter"}, true, false},
		{"explicitly disabled", config.Config{LLMProvider: "none", OpenRouterKey: "k"}, true, false},
		{"unknown provider", config.Config{LLMProvider: "bogus"}, true, true},
		{"configured", config.Config{LLMProvider: "openrouter", OpenRouterKey: "k", LLMModel: "m"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := BuildLLM(tt.cfg, log)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, client)
				return
			}
			require.NotNil(t, client)
			assert.Equal(t, "m", client.Model())
			_, ok := client.(*llm.OpenRouterClient)
			assert.True(t, ok)
		})
	}
}

func TestBuildScoringWithoutClient(t *testing.T) {
	cfg := config.Config{LLMModel: "google/gemini-2.0-flash-001"}
	svc := BuildScoring(cfg, logger.Discard(), nil, cache.NewNoOpCache(), nil)
	assert.Equal(t, "google/gemini-2.0-flash-001", svc.Model())
}

func TestBuildCacheFallsBack(t *testing.T) {
	log := logger.Discard()

	_, ok := BuildCache(config.Config{CacheProvider: "none"}, log).(*cache.NoOpCache)
	assert.True(t, ok)

	_, ok = BuildCache(config.Config{CacheProvider: "memcached"}, log).(*cache.NoOpCache)
	assert.True(t, ok)

	// Nothing listens on port 1.
	_, ok = BuildCache(config.Config{CacheProvider: "redis", RedisAddr: "127.0.0.1:1"}, log).(*cache.NoOpCache)
	assert.True(t, ok)
}

func TestBuildStoreAndQueueValidation(t *testing.T) {
	log := logger.Discard()

	_, err := buildStore(config.Config{StoreProvider: "postgres"}, log)
	assert.Error(t, err)
	_, err = buildStore(config.Config{StoreProvider: "sqlite"}, log)
	assert.Error(t, err)

	_, _, err = buildQueue(config.Config{QueueProvider: "nats"}, log)
	assert.Error(t, err)
	_, _, err = buildQueue(config.Config{QueueProvider: "kafka"}, log)
	assert.Error(t, err)
}

func TestBuildProfiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loans.yaml"),
		[]byte("users:\n  - pan: ABCDE1234F\n    name: Rahul Sharma\n    email: rahul@gmail.com\n"), 0o644))

	svc, err := BuildProfiles(config.Config{DataDir: dir, LoansFile: "loans.yaml", ProfilesFile: "user_profiles.csv"}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, dir, svc.DataDir)
	assert.Equal(t, "ABCDE1234F", svc.Registry.PANForEmail("rahul@gmail.com"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("users: ["), 0o644))
	_, err = BuildProfiles(config.Config{DataDir: dir, LoansFile: "bad.yaml"}, logger.Discard())
	assert.Error(t, err)
}

func TestDepsClose(t *testing.T) {
	var order []int
	d := Deps{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
	}}

	err := d.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []int{2, 1}, order)
}
