package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/server/dedup"
	"github.com/skydexapp/skydex/internal/server/observability"
	"github.com/skydexapp/skydex/internal/server/repositories/repomanager"
	"github.com/skydexapp/skydex/internal/server/vision"
)

// Recognition flow-control errors surfaced to the HTTP layer.
var (
	ErrVisionNotConfigured = errors.New("vision API key not configured")
	ErrDuplicateImage      = errors.New("image already recognized")
	ErrNoCloudDetected     = errors.New("no cloud detected")
	ErrVisionTimeout       = errors.New("vision request timed out")
)

// VisionClient is the part of the vision client the service needs.
type VisionClient interface {
	Describe(ctx context.Context, imageBase64, prompt string) (string, error)
}

// RecognizeService sends a photo to the vision model, guards against
// duplicate submissions with perceptual hashes, and rejects photos the
// model says contain no cloud.
type RecognizeService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	vision     VisionClient
	configured bool
	clock      clockwork.Clock
	metrics    *observability.Metrics
}

func NewRecognizeService(db *sql.DB, m repomanager.RepositoryManager, v VisionClient, apiKeyConfigured bool, clock clockwork.Clock, metrics *observability.Metrics) *RecognizeService {
	return &RecognizeService{db: db, repos: m, vision: v, configured: apiKeyConfigured, clock: clock, metrics: metrics}
}

// Recognize returns the raw completion text for one photo. A hash
// computation failure never blocks recognition; the hash is only saved
// after a successful, cloud-containing answer.
func (s *RecognizeService) Recognize(ctx context.Context, userID, imageBase64 string) (string, error) {
	if !s.configured {
		return "", ErrVisionNotConfigured
	}

	phash, err := dedup.ComputeHash(imageBase64)
	if err != nil {
		phash = ""
	}

	if phash != "" {
		existing, err := s.repos.ImageHashes(s.db).ListByUser(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("error reading image hashes: %v", err)
		}
		if dedup.IsDuplicate(phash, existing, dedup.DefaultThreshold) {
			s.metrics.RecognizeRequests.WithLabelValues("duplicate").Inc()
			return "", ErrDuplicateImage
		}
	}

	start := s.clock.Now()
	content, err := s.vision.Describe(ctx, imageBase64, recognition.Prompt)
	s.metrics.VisionAPIDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		if vision.IsTimeout(err) {
			s.metrics.RecognizeRequests.WithLabelValues("timeout").Inc()
			return "", ErrVisionTimeout
		}
		s.metrics.RecognizeRequests.WithLabelValues("upstream_error").Inc()
		return "", err
	}

	stripped := strings.ReplaceAll(strings.TrimSpace(content), "*", "")
	if strings.HasPrefix(stripped, recognition.NoCloudMarker) {
		s.metrics.RecognizeRequests.WithLabelValues("no_cloud").Inc()
		return "", ErrNoCloudDetected
	}

	if phash != "" {
		if err := s.repos.ImageHashes(s.db).Add(ctx, userID, phash); err != nil {
			return "", fmt.Errorf("error saving image hash: %v", err)
		}
	}

	s.metrics.RecognizeRequests.WithLabelValues("success").Inc()
	return content, nil
}
