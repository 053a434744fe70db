// Package api is the HTTP client for the Skydex server. It maps the
// server's flow-control statuses back to sentinel errors the caller
// can match with errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skydexapp/skydex/internal/client/models"
	"github.com/skydexapp/skydex/internal/recognition"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrDuplicateImage   = errors.New("image already recognized")
	ErrNoCloudDetected  = errors.New("no cloud detected in the photo")
)

// Client talks to one Skydex server on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// SetToken installs the bearer token used by authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

type serverError struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.asError(resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *Client) asError(status int, body []byte) error {
	var se serverError
	_ = json.Unmarshal(body, &se)

	switch status {
	case http.StatusUnauthorized:
		return ErrNotAuthenticated
	case http.StatusConflict:
		return ErrDuplicateImage
	case http.StatusUnprocessableEntity:
		return ErrNoCloudDetected
	}
	if se.Detail != "" {
		return fmt.Errorf("server error (%d): %s", status, se.Detail)
	}
	return fmt.Errorf("server error (%d)", status)
}

// AuthResponse is the register/login answer.
type AuthResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchState downloads the server-side snapshot. The wire shape is the
// same as the local aggregate minus the media fields.
func (c *Client) FetchState(ctx context.Context) (*models.UserState, error) {
	var out models.UserState
	if err := c.do(ctx, http.MethodGet, "/api/user/state", nil, &out); err != nil {
		return nil, err
	}
	if out.Cards == nil {
		out.Cards = map[string]*models.CardState{}
	}
	return &out, nil
}

// LitResult is the server's scoring answer for one lighting event.
type LitResult struct {
	EarnedScore  int    `json:"earnedScore"`
	NewPoints    int    `json:"newPoints"`
	StreakCount  int    `json:"streakCount"`
	StreakRarity string `json:"streakRarity"`
	InCooldown   bool   `json:"inCooldown"`
}

func (c *Client) LitCard(ctx context.Context, cardID string, analysis recognition.Analysis) (*LitResult, error) {
	body := map[string]string{
		"card_id":      cardID,
		"ai_family":    analysis.Family,
		"ai_genus":     analysis.Genus,
		"ai_species":   analysis.Species,
		"ai_features":  analysis.Features,
		"ai_weather":   analysis.Weather,
		"ai_knowledge": analysis.Know,
	}
	var out LitResult
	if err := c.do(ctx, http.MethodPost, "/api/user/lit", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnlockResult reports a server-side unlock; Success false means the
// balance was short.
type UnlockResult struct {
	Success   bool `json:"success"`
	NewPoints int  `json:"newPoints"`
}

func (c *Client) UnlockCard(ctx context.Context, cardID string) (*UnlockResult, error) {
	var out UnlockResult
	if err := c.do(ctx, http.MethodPost, "/api/user/unlock", map[string]string{"card_id": cardID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Migrate uploads legacy local state, stripping the media fields.
func (c *Client) Migrate(ctx context.Context, state *models.UserState) (bool, error) {
	cards := make(map[string]any, len(state.Cards))
	for cardID, card := range state.Cards {
		records := make([]map[string]any, 0, len(card.LitRecords))
		for _, r := range card.LitRecords {
			records = append(records, map[string]any{
				"timestamp":   r.Timestamp,
				"earnedScore": r.EarnedScore,
				"aiAnalysis":  r.Analysis,
			})
		}
		cards[cardID] = map[string]any{
			"status":     card.Status,
			"litCount":   card.LitCount,
			"unlockedAt": card.UnlockedAt,
			"litRecords": records,
		}
	}

	body := map[string]any{
		"points":          state.Points,
		"total_lit_count": state.TotalLitCount,
		"streak_rarity":   state.StreakRarity,
		"streak_count":    state.StreakCount,
		"cards":           cards,
	}

	var out struct {
		Migrated bool `json:"migrated"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/user/migrate", body, &out); err != nil {
		return false, err
	}
	return out.Migrated, nil
}

// Recognize uploads one base64 photo and returns the raw completion.
func (c *Client) Recognize(ctx context.Context, imageBase64 string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/recognize", map[string]string{"image_base64": imageBase64}, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}
