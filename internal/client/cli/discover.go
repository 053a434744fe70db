package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/skydexapp/skydex/internal/client/api"
	"github.com/skydexapp/skydex/internal/client/services"
	"github.com/skydexapp/skydex/internal/recognition"
)

// encodeImageFile reads a photo and wraps it in the data-URI form the
// recognition endpoint expects.
func encodeImageFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading photo: %w", err)
	}

	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw)), nil
}

// Discover sends a photo through the recognition pipeline and records
// the discovery in the local collection. When logged in, the discovery
// is also confirmed with the server ledger.
func (a *App) Discover(ctx context.Context, path string) error {
	image, err := encodeImageFile(path)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	content, err := a.api.Recognize(ctx, image)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrNotAuthenticated):
			printlnFn("Please login first: recognition runs on the server")
		case errors.Is(err, api.ErrDuplicateImage):
			printlnFn("You have already discovered this photo")
		case errors.Is(err, api.ErrNoCloudDetected):
			printlnFn("No cloud detected, try pointing at the sky")
		default:
			log.Printf("recognition failed: %v", err)
		}
		return err
	}

	result, err := a.pipeline.BuildResult(content)
	if err != nil {
		if errors.Is(err, recognition.ErrNoMatch) {
			printlnFn("Could not match this cloud to a known card, try another angle")
		} else {
			log.Printf("error: %v", err)
		}
		return err
	}

	out, err := a.store.LitCard(ctx, services.LitEvent{
		CardID:   result.CloudID,
		ImageURL: path,
		Analysis: result.Analysis,
	})
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	if a.isLoggedIn() {
		// A failed push keeps the optimistic local state; the next
		// login reconciles.
		_ = a.sync.PushLit(ctx, result.CloudID, result.Analysis)
	}

	printlnFn(fmt.Sprintf("Discovered: %s (%s) [%s]", result.CloudName, result.LatinName, result.Rarity))
	if out.InCooldown {
		printlnFn("Recently discovered, no points this time")
	} else {
		printlnFn(fmt.Sprintf("+%d points (balance %d), %s streak x%d", out.EarnedScore, out.NewPoints, out.StreakRarity, out.StreakCount))
	}
	return nil
}
