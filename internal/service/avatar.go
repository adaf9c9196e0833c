package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/basel-ax/avatargen/internal/domain"
	"github.com/basel-ax/avatargen/internal/prompt"
	"github.com/basel-ax/avatargen/internal/repository"
	"github.com/basel-ax/avatargen/internal/session"
)

// ImageAcquirer produces a decoded image for a composed prompt
type ImageAcquirer interface {
	Generate(ctx context.Context, apiKey, prompt string, resolution domain.Resolution) (*domain.GeneratedImage, error)
}

// ImageSink persists image bytes and returns the written path
type ImageSink interface {
	Save(data []byte, format string) (string, error)
}

// AvatarService runs the generation pipeline for one user action:
// compose, generate, fetch, decode, persist, then publish to the session.
type AvatarService struct {
	catalog domain.AttributeCatalog
	images  ImageAcquirer
	sink    ImageSink
	history repository.GenerationRepository
	limiter *rate.Limiter
	now     func() time.Time
}

// AvatarOption configures an AvatarService
type AvatarOption func(*AvatarService)

// WithHistory records successful generations in repo
func WithHistory(repo repository.GenerationRepository) AvatarOption {
	return func(s *AvatarService) {
		s.history = repo
	}
}

// WithRateLimit caps generations across all sessions. Zero means unlimited.
func WithRateLimit(perMinute int) AvatarOption {
	return func(s *AvatarService) {
		if perMinute > 0 {
			s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// NewAvatarService creates a new avatar pipeline
func NewAvatarService(catalog domain.AttributeCatalog, images ImageAcquirer, sink ImageSink, opts ...AvatarOption) *AvatarService {
	s := &AvatarService{
		catalog: catalog,
		images:  images,
		sink:    sink,
		history: repository.NopGenerationRepository{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the attribute catalog the service validates against
func (s *AvatarService) Catalog() domain.AttributeCatalog {
	return s.catalog
}

// Generate runs the pipeline for req within sess. On success the new image
// replaces the session's previous one; on failure the session is untouched
// and nothing is written.
func (s *AvatarService) Generate(ctx context.Context, sess *session.Session, req domain.GenerationRequest) (*domain.GeneratedImage, error) {
	if s.catalog.Empty() {
		return nil, domain.NewConfigurationError("attribute catalog is empty, generation is unavailable", nil)
	}
	if sess.APIKey() == "" {
		return nil, domain.NewValidationError("OpenAI API key is required", nil)
	}
	if !req.Resolution.Valid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported resolution %q", req.Resolution), nil)
	}
	if err := req.Selection.Validate(s.catalog); err != nil {
		return nil, err
	}

	fullPrompt, err := prompt.ComposeRequest(req)
	if err != nil {
		return nil, err
	}

	if !sess.Begin() {
		return nil, domain.NewValidationError("generation already in progress", nil)
	}
	defer sess.End()

	if s.limiter != nil && !s.limiter.Allow() {
		return nil, domain.NewValidationError("too many generations, try again later", nil)
	}

	log.Printf("Generating image for session %s at %s", sess.ID, req.Resolution)
	img, err := s.images.Generate(ctx, sess.APIKey(), fullPrompt, req.Resolution)
	if err != nil {
		log.Printf("Error generating image for session %s: %v", sess.ID, err)
		return nil, err
	}

	path, err := s.sink.Save(img.Data, img.Format)
	if err != nil {
		log.Printf("Error saving image for session %s: %v", sess.ID, err)
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	img.Path = path
	img.CreatedAt = s.now()

	rec := &domain.GenerationRecord{
		SessionID:     sess.ID,
		Prompt:        fullPrompt,
		RevisedPrompt: img.RevisedPrompt,
		Resolution:    req.Resolution,
		URL:           img.URL,
		Path:          img.Path,
		Format:        img.Format,
		CreatedAt:     img.CreatedAt,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		log.Printf("Error recording generation history for session %s: %v", sess.ID, err)
	}

	sess.SetImage(img)
	log.Printf("Image saved to: %s", img.Path)
	return img, nil
}
