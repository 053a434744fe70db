package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skydexapp/skydex/internal/client/models"
	"github.com/skydexapp/skydex/internal/recognition"
)

func stateWithOneLitCard() *models.UserState {
	return &models.UserState{
		Points:        40,
		TotalLitCount: 1,
		StreakRarity:  "常见",
		StreakCount:   1,
		Cards: map[string]*models.CardState{
			"cirrus": {
				CardID:   "cirrus",
				Status:   models.StatusLit,
				LitCount: 1,
				LitRecords: []models.LitRecord{
					{Timestamp: 1700000000000, EarnedScore: 10, Thumbnail: "data:image/jpeg;base64,thumb"},
				},
			},
		},
	}
}

func newTestClient(handler http.HandlerFunc) (*Client, func()) {
	srv := httptest.NewServer(handler)
	c := NewClient(srv.URL, time.Second)
	return c, srv.Close
}

func TestLoginAndToken(t *testing.T) {
	var gotAuth string
	c, cleanup := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "sky@example.com", body["email"])
			_, _ = w.Write([]byte(`{"token":"t1","email":"sky@example.com"}`))
		case "/api/user/state":
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"points":30,"totalLitCount":0,"cards":{}}`))
		}
	})
	defer cleanup()

	auth, err := c.Login(context.Background(), "sky@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "t1", auth.Token)

	c.SetToken(auth.Token)
	state, err := c.FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer t1", gotAuth)
	assert.Equal(t, 30, state.Points)
	assert.NotNil(t, state.Cards)
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"token expired"}`, ErrNotAuthenticated},
		{"duplicate", http.StatusConflict, `{"detail":"DUPLICATE_IMAGE"}`, ErrDuplicateImage},
		{"no cloud", http.StatusUnprocessableEntity, `{"detail":"NO_CLOUD_DETECTED"}`, ErrNoCloudDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, cleanup := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			defer cleanup()

			_, err := c.Recognize(context.Background(), "img")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestServerDetailPassedThrough(t *testing.T) {
	c, cleanup := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"email already registered"}`))
	})
	defer cleanup()

	_, err := c.Register(context.Background(), "sky@example.com", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestLitCardPayload(t *testing.T) {
	c, cleanup := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cirrus", body["card_id"])
		assert.Equal(t, "卷云", body["ai_species"])
		assert.Equal(t, "冷知识", body["ai_knowledge"])
		_, _ = w.Write([]byte(`{"earnedScore":10,"newPoints":40,"streakCount":1,"streakRarity":"常见","inCooldown":false}`))
	})
	defer cleanup()

	res, err := c.LitCard(context.Background(), "cirrus", recognition.Analysis{Species: "卷云", Know: "冷知识"})
	require.NoError(t, err)
	assert.Equal(t, 10, res.EarnedScore)
	assert.Equal(t, 40, res.NewPoints)
}

func TestMigrateStripsMedia(t *testing.T) {
	c, cleanup := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cards := body["cards"].(map[string]any)
		card := cards["cirrus"].(map[string]any)
		records := card["litRecords"].([]any)
		record := records[0].(map[string]any)
		_, hasThumb := record["thumbnail"]
		assert.False(t, hasThumb, "thumbnails must never leave the device")
		_, _ = w.Write([]byte(`{"migrated":true,"message":"ok"}`))
	})
	defer cleanup()

	state := stateWithOneLitCard()
	migrated, err := c.Migrate(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, migrated)
}
