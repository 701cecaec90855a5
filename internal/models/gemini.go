package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiSource lists models through the Gemini API.
type GeminiSource struct {
	client *genai.Client
}

// NewGeminiSource creates a client authenticated with apiKey.
func NewGeminiSource(ctx context.Context, apiKey string) (*GeminiSource, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required to list models")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSource{client: client}, nil
}

func (s *GeminiSource) Models(ctx context.Context, visit func(Model) error) error {
	it := s.client.ListModels(ctx)
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := visit(Model{Name: info.Name, Methods: info.SupportedGenerationMethods}); err != nil {
			return err
		}
	}
}

func (s *GeminiSource) Close() error {
	return s.client.Close()
}
