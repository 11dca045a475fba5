package main

import (
	"context"
	"testing"
	"time"

	"continuum/backend/internal/ingest"
	"continuum/backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBuildOptions_Defaults(t *testing.T) {
	cfg := &config.Config{
		FetchTimeout:     time.Second,
		FetchConcurrency: 2,
		UserAgent:        "test",
	}

	opts := buildOptions(context.Background(), cfg, zap.NewNop())

	assert.IsType(t, &ingest.Fetcher{}, opts.Fetcher)
	assert.Nil(t, opts.Pipeline)
	assert.Nil(t, opts.Summarizer)
	assert.Nil(t, opts.Companion)
	assert.Nil(t, opts.Concepts)
	assert.Nil(t, opts.Archiver)
}

func TestBuildOptions_LLMEnabled(t *testing.T) {
	cfg := &config.Config{
		LLMBaseURL: "http://localhost:4000",
		ModelID:    "test-model",
	}

	opts := buildOptions(context.Background(), cfg, zap.NewNop())

	assert.NotNil(t, opts.Pipeline)
	assert.NotNil(t, opts.Summarizer)
	assert.NotNil(t, opts.Companion)
	assert.NotNil(t, opts.Concepts)
}
