package domain

import (
	"context"
	"time"
)

// Resolution is one of the image sizes accepted by the generation service
type Resolution string

const (
	Resolution1024x1024 Resolution = "1024x1024"
	Resolution1792x1024 Resolution = "1792x1024"
	Resolution1024x1792 Resolution = "1024x1792"
)

// Resolutions lists the supported sizes in display order
var Resolutions = []Resolution{Resolution1024x1024, Resolution1792x1024, Resolution1024x1792}

// Valid reports whether r is one of the supported sizes
func (r Resolution) Valid() bool {
	for _, s := range Resolutions {
		if r == s {
			return true
		}
	}
	return false
}

// GenerationRequest is the snapshot taken when the user triggers generation
type GenerationRequest struct {
	Prompt     string
	Resolution Resolution
	Selection  FieldSelection
	Inclusion  InclusionPolicy
}

// NewGenerationRequest snapshots the selection so later form changes do not leak in.
// A nil policy includes every attribute.
func NewGenerationRequest(prompt string, resolution Resolution, sel FieldSelection, policy InclusionPolicy) GenerationRequest {
	if policy == nil {
		policy = IncludeAll
	}
	if t, ok := policy.(Toggles); ok {
		clone := make(Toggles, len(t))
		for k, v := range t {
			clone[k] = v
		}
		policy = clone
	}
	return GenerationRequest{
		Prompt:     prompt,
		Resolution: resolution,
		Selection:  sel.Clone(),
		Inclusion:  policy,
	}
}

// ImageGenerationResponse represents the response from the image generation service
type ImageGenerationResponse struct {
	URL           string
	RevisedPrompt string
}

// GeneratedImage is a downloaded, decoded and (once saved) persisted image
type GeneratedImage struct {
	Data          []byte
	Format        string
	URL           string
	RevisedPrompt string
	Path          string
	CreatedAt     time.Time
}

// Extension returns the file extension matching the detected format
func (g *GeneratedImage) Extension() string {
	return ExtensionFor(g.Format)
}

// ContentType returns the MIME type matching the detected format
func (g *GeneratedImage) ContentType() string {
	if g.Format == "" {
		return "image/jpeg"
	}
	return "image/" + g.Format
}

// ExtensionFor maps a decoder format name to a file extension
func ExtensionFor(format string) string {
	switch format {
	case "jpeg", "":
		return "jpg"
	default:
		return format
	}
}

// ImageGenerator defines the interface for the text-to-image service
type ImageGenerator interface {
	// GenerateImage requests a single image for the prompt at the given size
	GenerateImage(ctx context.Context, prompt string, resolution Resolution) (*ImageGenerationResponse, error)
}

// ImageFetcher downloads the raw bytes behind an image URL
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// GenerationRecord is one entry of the generation history
type GenerationRecord struct {
	ID            int64
	SessionID     string
	Prompt        string
	RevisedPrompt string
	Resolution    Resolution
	URL           string
	Path          string
	Format        string
	CreatedAt     time.Time
}
