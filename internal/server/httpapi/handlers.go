package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skydexapp/skydex/internal/common"
	"github.com/skydexapp/skydex/internal/logging"
	"github.com/skydexapp/skydex/internal/recognition"
	"github.com/skydexapp/skydex/internal/server/services"
	"github.com/skydexapp/skydex/internal/server/vision"
)

// UserService is the authentication surface the handlers need.
type UserService interface {
	Register(ctx context.Context, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

// LedgerService is the collection-state surface the handlers need.
type LedgerService interface {
	GetState(ctx context.Context, userID string) (*services.StateSnapshot, error)
	LitCard(ctx context.Context, userID, cardID string, analysis recognition.Analysis) (*services.LitOutcome, error)
	UnlockCard(ctx context.Context, userID, cardID string) (*services.UnlockOutcome, error)
	Migrate(ctx context.Context, userID string, in *services.MigrateInput) (bool, error)
}

// RecognizeService is the photo-recognition surface the handlers need.
type RecognizeService interface {
	Recognize(ctx context.Context, userID, imageBase64 string) (string, error)
}

// Handler holds the services behind the API endpoints.
type Handler struct {
	users      UserService
	ledger     LedgerService
	recognizer RecognizeService
	log        logging.Logger
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type litCardRequest struct {
	CardID     string `json:"card_id" binding:"required"`
	AIFamily   string `json:"ai_family"`
	AIGenus    string `json:"ai_genus"`
	AISpecies  string `json:"ai_species"`
	AIFeatures string `json:"ai_features"`
	AIWeather  string `json:"ai_weather"`
	AIKnow     string `json:"ai_knowledge"`
}

type unlockCardRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

type recognizeRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and password are required"})
		return
	}

	session, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail),
			errors.Is(err, services.ErrPasswordTooShort),
			errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		default:
			h.log.Error(c.Request.Context(), "registration failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: session.Token, Email: session.Email})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and password are required"})
		return
	}

	session, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailNotRegistered),
			errors.Is(err, services.ErrWrongPassword):
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		default:
			h.log.Error(c.Request.Context(), "login failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: session.Token, Email: session.Email})
}

func (h *Handler) GetState(c *gin.Context) {
	snapshot, err := h.ledger.GetState(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error(c.Request.Context(), "state read failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) LitCard(c *gin.Context) {
	var req litCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "card_id is required"})
		return
	}

	analysis := recognition.Analysis{
		Family:   req.AIFamily,
		Genus:    req.AIGenus,
		Species:  req.AISpecies,
		Features: req.AIFeatures,
		Weather:  req.AIWeather,
		Know:     req.AIKnow,
	}
	outcome, err := h.ledger.LitCard(c.Request.Context(), currentUserID(c), req.CardID, analysis)
	if err != nil {
		if errors.Is(err, common.ErrorUnknownCard) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "unknown card id"})
			return
		}
		h.log.Error(c.Request.Context(), "lit card failed", "error", err, "cardID", req.CardID)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) UnlockCard(c *gin.Context) {
	var req unlockCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "card_id is required"})
		return
	}

	outcome, err := h.ledger.UnlockCard(c.Request.Context(), currentUserID(c), req.CardID)
	if err != nil {
		if errors.Is(err, common.ErrorUnknownCard) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "unknown card id"})
			return
		}
		h.log.Error(c.Request.Context(), "unlock failed", "error", err, "cardID", req.CardID)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) Migrate(c *gin.Context) {
	var req services.MigrateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid migration payload"})
		return
	}

	migrated, err := h.ledger.Migrate(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		h.log.Error(c.Request.Context(), "migration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	message := "migration complete"
	if !migrated {
		message = "server already has data, migration skipped"
	}
	c.JSON(http.StatusOK, gin.H{"migrated": migrated, "message": message})
}

func (h *Handler) Recognize(c *gin.Context) {
	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "image_base64 is required"})
		return
	}

	content, err := h.recognizer.Recognize(c.Request.Context(), currentUserID(c), req.ImageBase64)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVisionNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "vision API key not configured"})
		case errors.Is(err, services.ErrDuplicateImage):
			c.JSON(http.StatusConflict, gin.H{"detail": "DUPLICATE_IMAGE"})
		case errors.Is(err, services.ErrNoCloudDetected):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "NO_CLOUD_DETECTED"})
		case errors.Is(err, services.ErrVisionTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"detail": "recognition timed out, please retry"})
		case errors.Is(err, vision.ErrUpstream):
			c.JSON(http.StatusBadGateway, gin.H{"detail": "recognition service unavailable"})
		default:
			h.log.Error(c.Request.Context(), "recognition failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}
