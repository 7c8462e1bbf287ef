package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/promotion/model"
	"wiwihood-backend/internal/domains/promotion/service"
	"wiwihood-backend/internal/shared/response"
)

// =====================================================
// ADMIN PROMOTION HANDLER
// =====================================================

type AdminHandler struct {
	promotionService service.PromotionService
}

func NewAdminHandler(promotionService service.PromotionService) *AdminHandler {
	return &AdminHandler{
		promotionService: promotionService,
	}
}

// CreatePromotion creates a campaign
// POST /api/v1/admin/promotions
func (h *AdminHandler) CreatePromotion(c *gin.Context) {
	var req model.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	promo, err := h.promotionService.Create(c.Request.Context(), &req)
	if err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, promo)
}

// ListPromotions lists campaigns with optional provider/status filters
// GET /api/v1/admin/promotions
func (h *AdminHandler) ListPromotions(c *gin.Context) {
	var filter model.PromotionFilter

	if raw := c.Query("provider_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid provider ID")
			return
		}
		filter.ProviderID = &id
	}
	if status := c.Query("status"); status != "" {
		if !model.PromotionStatus(status).IsValid() {
			response.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid status filter")
			return
		}
		filter.Status = status
	}

	promotions, err := h.promotionService.FindAll(c.Request.Context(), filter)
	if err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, promotions)
}

// GetPromotion returns one campaign by id
// GET /api/v1/admin/promotions/:id
func (h *AdminHandler) GetPromotion(c *gin.Context) {
	promotionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID")
		return
	}

	promo, err := h.promotionService.FindByID(c.Request.Context(), promotionID)
	if err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, promo)
}

// UpdatePromotion patches a campaign
// PUT /api/v1/admin/promotions/:id
func (h *AdminHandler) UpdatePromotion(c *gin.Context) {
	promotionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID")
		return
	}

	var req model.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	promo, err := h.promotionService.Update(c.Request.Context(), promotionID, &req)
	if err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, promo)
}

// DeletePromotion removes a campaign
// DELETE /api/v1/admin/promotions/:id
func (h *AdminHandler) DeletePromotion(c *gin.Context) {
	promotionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID")
		return
	}

	if err := h.promotionService.Remove(c.Request.Context(), promotionID); err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Promotion deleted successfully",
	})
}

// GetPromotionUsage lists redemption records for a campaign
// GET /api/v1/admin/promotions/:id/usage
func (h *AdminHandler) GetPromotionUsage(c *gin.Context) {
	promotionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid promotion ID")
		return
	}

	usage, err := h.promotionService.GetPromotionUsage(c.Request.Context(), promotionID)
	if err != nil {
		mapPromotionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, usage)
}
