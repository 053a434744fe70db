package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/logging"
	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/server/auth"
	"github.com/skydexapp/skydex/internal/server/services"
	"github.com/skydexapp/skydex/internal/server/vision"
)

var testSecret = []byte("test-secret")

type fakeUsers struct {
	session *services.Session
	err     error
}

func (f *fakeUsers) Register(ctx context.Context, email, password string) (*services.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.Session, error) {
	return f.Register(ctx, email, password)
}

type fakeLedger struct {
	snapshot *services.StateSnapshot
	lit      *services.LitOutcome
	unlock   *services.UnlockOutcome
	migrated bool
	err      error

	gotUserID   string
	gotCardID   string
	gotAnalysis recognition.Analysis
}

func (f *fakeLedger) GetState(ctx context.Context, userID string) (*services.StateSnapshot, error) {
	f.gotUserID = userID
	return f.snapshot, f.err
}

func (f *fakeLedger) LitCard(ctx context.Context, userID, cardID string, analysis recognition.Analysis) (*services.LitOutcome, error) {
	f.gotUserID, f.gotCardID, f.gotAnalysis = userID, cardID, analysis
	if f.err != nil {
		return nil, f.err
	}
	return f.lit, nil
}

func (f *fakeLedger) UnlockCard(ctx context.Context, userID, cardID string) (*services.UnlockOutcome, error) {
	f.gotUserID, f.gotCardID = userID, cardID
	if f.err != nil {
		return nil, f.err
	}
	return f.unlock, nil
}

func (f *fakeLedger) Migrate(ctx context.Context, userID string, in *services.MigrateInput) (bool, error) {
	f.gotUserID = userID
	return f.migrated, f.err
}

type fakeRecognizer struct {
	content string
	err     error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, userID, imageBase64 string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func newTestRouter(users UserService, ledger LedgerService, recognizer RecognizeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Users:      users,
		Ledger:     ledger,
		Recognizer: recognizer,
		JWTSecret:  testSecret,
		Logger:     logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("u1", testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeLedger{}, &fakeRecognizer{})
	w := doJSON(t, router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRegisterAndLogin(t *testing.T) {
	users := &fakeUsers{session: &services.Session{Token: "t1", Email: "sky@example.com"}}
	router := newTestRouter(users, &fakeLedger{}, &fakeRecognizer{})

	w := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{"email": "sky@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"t1","email":"sky@example.com"}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/login", "", gin.H{"email": "sky@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Missing fields never reach the service.
	w = doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{"email": "sky@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"weak password", services.ErrPasswordTooShort, http.StatusBadRequest},
		{"taken", services.ErrEmailTaken, http.StatusBadRequest},
		{"internal", common.ErrorInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeUsers{err: tt.err}, &fakeLedger{}, &fakeRecognizer{})
			w := doJSON(t, router, http.MethodPost, "/api/register", "", gin.H{"email": "a@b.c", "password": "secret1"})
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeLedger{}, &fakeRecognizer{})

	w := doJSON(t, router, http.MethodGet, "/api/user/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/user/state", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := auth.GenerateToken("u1", testSecret, -time.Minute)
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodGet, "/api/user/state", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestGetState(t *testing.T) {
	ledger := &fakeLedger{snapshot: &services.StateSnapshot{
		Points:        42,
		TotalLitCount: 3,
		Cards:         map[string]*services.CardSnapshot{},
	}}
	router := newTestRouter(&fakeUsers{}, ledger, &fakeRecognizer{})

	w := doJSON(t, router, http.MethodGet, "/api/user/state", validToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", ledger.gotUserID)

	var snap services.StateSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 42, snap.Points)
}

func TestLitCard(t *testing.T) {
	ledger := &fakeLedger{lit: &services.LitOutcome{EarnedScore: 12, NewPoints: 52, StreakCount: 2, StreakRarity: "常见"}}
	router := newTestRouter(&fakeUsers{}, ledger, &fakeRecognizer{})

	body := gin.H{"card_id": "cirrus", "ai_species": "卷云", "ai_knowledge": "知识"}
	w := doJSON(t, router, http.MethodPost, "/api/user/lit", validToken(t), body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cirrus", ledger.gotCardID)
	assert.Equal(t, "卷云", ledger.gotAnalysis.Species)
	assert.Equal(t, "知识", ledger.gotAnalysis.Know)
	assert.Contains(t, w.Body.String(), `"earnedScore":12`)

	ledger.err = common.ErrorUnknownCard
	w = doJSON(t, router, http.MethodPost, "/api/user/lit", validToken(t), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnlockCard(t *testing.T) {
	ledger := &fakeLedger{unlock: &services.UnlockOutcome{Success: false, NewPoints: 20}}
	router := newTestRouter(&fakeUsers{}, ledger, &fakeRecognizer{})

	// An unaffordable unlock is still HTTP 200 with success=false.
	w := doJSON(t, router, http.MethodPost, "/api/user/unlock", validToken(t), gin.H{"card_id": "nacreous"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"newPoints":20}`, w.Body.String())
}

func TestMigrate(t *testing.T) {
	ledger := &fakeLedger{migrated: true}
	router := newTestRouter(&fakeUsers{}, ledger, &fakeRecognizer{})

	w := doJSON(t, router, http.MethodPost, "/api/user/migrate", validToken(t), gin.H{"points": 10, "total_lit_count": 1, "cards": gin.H{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"migrated":true`)
}

func TestRecognize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate", services.ErrDuplicateImage, http.StatusConflict},
		{"no cloud", services.ErrNoCloudDetected, http.StatusUnprocessableEntity},
		{"timeout", services.ErrVisionTimeout, http.StatusGatewayTimeout},
		{"not configured", services.ErrVisionNotConfigured, http.StatusInternalServerError},
		{"upstream", vision.ErrUpstream, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeUsers{}, &fakeLedger{}, &fakeRecognizer{err: tt.err})
			w := doJSON(t, router, http.MethodPost, "/api/recognize", validToken(t), gin.H{"image_base64": "data:image/png;base64,xx"})
			assert.Equal(t, tt.want, w.Code)
		})
	}

	router := newTestRouter(&fakeUsers{}, &fakeLedger{}, &fakeRecognizer{content: "**云属**: 卷云"})
	w := doJSON(t, router, http.MethodPost, "/api/recognize", validToken(t), gin.H{"image_base64": "data:image/png;base64,xx"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "卷云")
}
