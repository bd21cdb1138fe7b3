package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetrievalConfig(t *testing.T) {
	cfg := DefaultRetrievalConfig()

	assert.Equal(t, 768, cfg.Dimension)
	assert.Equal(t, 1280, cfg.ChunkSize)
	assert.True(t, cfg.Overlap)
	assert.Equal(t, PoolingMean, cfg.Pooling)
	assert.Equal(t, 5, cfg.Limit)

	require.NoError(t, cfg.Validate())
}

func TestRetrievalConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RetrievalConfig)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*RetrievalConfig) {},
		},
		{
			name:    "zero dimension",
			mutate:  func(c *RetrievalConfig) { c.Dimension = 0 },
			wantErr: true,
		},
		{
			name:    "negative dimension",
			mutate:  func(c *RetrievalConfig) { c.Dimension = -1 },
			wantErr: true,
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *RetrievalConfig) { c.ChunkSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero limit",
			mutate:  func(c *RetrievalConfig) { c.Limit = 0 },
			wantErr: true,
		},
		{
			name:    "unknown pooling mode",
			mutate:  func(c *RetrievalConfig) { c.Pooling = "median" },
			wantErr: true,
		},
		{
			name:   "first token pooling",
			mutate: func(c *RetrievalConfig) { c.Pooling = PoolingFirst },
		},
		{
			name:   "max pooling",
			mutate: func(c *RetrievalConfig) { c.Pooling = PoolingMax },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRetrievalConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
