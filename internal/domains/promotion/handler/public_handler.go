package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/promotion/model"
	"wiwihood-backend/internal/domains/promotion/service"
	"wiwihood-backend/internal/shared/response"
)

// =====================================================
// PUBLIC PROMOTION HANDLER
// =====================================================

type PublicHandler struct {
	promotionService service.PromotionService
}

func NewPublicHandler(promotionService service.PromotionService) *PublicHandler {
	return &PublicHandler{
		promotionService: promotionService,
	}
}

// getUserID extracts the authenticated user ID set by the auth middleware
func getUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// ValidatePromotion previews a code against an order amount.
// Always answers 200 with a {valid, reason?} body; an invalid code is
// a normal outcome here, not an HTTP error.
// POST /api/v1/promotions/validate
func (h *PublicHandler) ValidatePromotion(c *gin.Context) {
	var req model.ValidatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result := h.promotionService.Validate(c.Request.Context(), &req)
	response.Success(c, http.StatusOK, result)
}

// GetActivePromotions lists currently redeemable promotions,
// optionally scoped to one provider
// GET /api/v1/promotions/active?provider_id=...
func (h *PublicHandler) GetActivePromotions(c *gin.Context) {
	var providerID *uuid.UUID
	if raw := c.Query("provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid provider ID")
			return
		}
		providerID = &id
	}

	promotions, err := h.promotionService.FindActivePromotions(c.Request.Context(), providerID)
	if err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, promotions)
}

// ApplyPromotion records usage after a booking completes
// POST /api/v1/promotions/apply
func (h *PublicHandler) ApplyPromotion(c *gin.Context) {
	// Step 1: Get user ID from JWT
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	// Step 2: Bind request body
	var req model.ApplyPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Step 3: Validate request
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	// Step 4: Call service
	if err := h.promotionService.Apply(c.Request.Context(), userID, &req); err != nil {
		mapPromotionError(c, err)
		return
	}

	// Step 5: Return success
	response.Success(c, http.StatusCreated, gin.H{
		"message": "Promotion applied successfully",
	})
}

// mapPromotionError translates service errors into HTTP responses
func mapPromotionError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorResponse(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message)
		return
	}

	response.InternalServerError(c, "Something went wrong")
}
