package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/basel-ax/avatargen/internal/config"
	"github.com/basel-ax/avatargen/internal/domain"
	"github.com/basel-ax/avatargen/internal/infrastructure/fetch"
	"github.com/basel-ax/avatargen/internal/infrastructure/openai"
)

// GeneratorFactory builds an image generator for a session credential
type GeneratorFactory func(apiKey string) domain.ImageGenerator

// ImageGenerationService requests an image and downloads and decodes the result
type ImageGenerationService struct {
	newGenerator GeneratorFactory
	fetcher      domain.ImageFetcher
}

// NewImageGenerationService creates a new image generation service backed by OpenAI
func NewImageGenerationService(cfg *config.Config) *ImageGenerationService {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	factory := func(apiKey string) domain.ImageGenerator {
		return openai.NewClient(openai.Options{
			APIKey:     apiKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.ImageModel,
			HTTPClient: httpClient,
		})
	}
	return NewImageGenerationServiceWith(factory, fetch.NewClient(httpClient))
}

// NewImageGenerationServiceWith wires custom collaborators
func NewImageGenerationServiceWith(factory GeneratorFactory, fetcher domain.ImageFetcher) *ImageGenerationService {
	return &ImageGenerationService{newGenerator: factory, fetcher: fetcher}
}

// Generate requests one image for prompt, fetches its bytes and decodes them.
// Validation failures are reported before any network call.
func (s *ImageGenerationService) Generate(ctx context.Context, apiKey, prompt string, resolution domain.Resolution) (*domain.GeneratedImage, error) {
	if !resolution.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported resolution %q", resolution), nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.NewValidationError("prompt cannot be empty", nil)
	}
	if apiKey == "" {
		return nil, domain.NewValidationError("OpenAI API key is required", nil)
	}

	resp, err := s.newGenerator(apiKey).GenerateImage(ctx, prompt, resolution)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.NewServiceError("image generation failed", err)
		}
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	data, err := s.fetcher.Fetch(ctx, resp.URL)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.NewTransportError("image download failed", err)
		}
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &domain.GeneratedImage{
		Data:          data,
		Format:        format,
		URL:           resp.URL,
		RevisedPrompt: resp.RevisedPrompt,
	}, nil
}

// DetectFormat decodes data and returns the format inferred from its content
func DetectFormat(data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.NewTransportError("image body is empty", nil)
	}
	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", domain.NewTransportError("response is not a valid image", err)
	}
	return format, nil
}
