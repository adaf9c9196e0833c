// Package openai adapts the OpenAI images API to domain.ImageGenerator.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/basel-ax/avatargen/internal/domain"
)

const (
	// DefaultModel is the image model used when none is configured
	DefaultModel   = "dall-e-3"
	quality        = "hd"
	responseFormat = "url"
)

// Client represents the OpenAI image generation client
type Client struct {
	client *openai.Client
	model  string
}

// Options configures a Client
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewClient creates a new OpenAI image client.
// Retries are disabled: a retry is always a new user action.
func NewClient(opts Options) *Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(reqOpts...)
	return &Client{client: &client, model: model}
}

// GenerateImage requests exactly one high quality image for the prompt
func (c *Client) GenerateImage(ctx context.Context, prompt string, resolution domain.Resolution) (*domain.ImageGenerationResponse, error) {
	params := openai.ImageGenerateParams{
		Model:          openai.ImageModel(c.model),
		Prompt:         prompt,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize(resolution),
		Quality:        openai.ImageGenerateParamsQuality(quality),
		ResponseFormat: openai.ImageGenerateParamsResponseFormat(responseFormat),
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, domain.NewServiceError(fmt.Sprintf("image service rejected the request (status %d)", apiErr.StatusCode), err)
		}
		return nil, domain.NewServiceError("failed to send request", err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, domain.NewServiceError("image service returned no image", nil)
	}

	return &domain.ImageGenerationResponse{
		URL:           resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
	}, nil
}
