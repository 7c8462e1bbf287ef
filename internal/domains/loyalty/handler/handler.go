package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"wiwihood-backend/internal/domains/loyalty/model"
	"wiwihood-backend/internal/domains/loyalty/service"
	"wiwihood-backend/internal/shared/response"
)

// =====================================================
// LOYALTY HANDLER
// =====================================================

type LoyaltyHandler struct {
	loyaltyService service.LoyaltyService
}

func NewLoyaltyHandler(loyaltyService service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyService: loyaltyService,
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

// =====================================================
// CUSTOMER ENDPOINTS
// =====================================================

// GetAccount returns the caller's loyalty account
// GET /api/v1/loyalty/account
func (h *LoyaltyHandler) GetAccount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	account, err := h.loyaltyService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, account)
}

// GetHistory returns the caller's points ledger, newest first
// GET /api/v1/loyalty/history
func (h *LoyaltyHandler) GetHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var filter model.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	filter.Normalize()

	transactions, total, err := h.loyaltyService.GetPointsHistory(c.Request.Context(), userID, filter)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, transactions, &response.Meta{
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// RedeemPoints spends points, optionally against a catalog reward
// POST /api/v1/loyalty/redeem
func (h *LoyaltyHandler) RedeemPoints(c *gin.Context) {
	// Step 1: Get user ID from JWT
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	// Step 2: Bind request body
	var req model.RedeemPointsRequest
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
	account, err := h.loyaltyService.RedeemPoints(c.Request.Context(), userID, &req)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	// Step 5: Return success
	response.Success(c, http.StatusOK, account)
}

// GetAvailableRewards lists active rewards visible to the caller's tier
// GET /api/v1/loyalty/rewards
func (h *LoyaltyHandler) GetAvailableRewards(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var filter model.RewardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	rewards, err := h.loyaltyService.GetAvailableRewards(c.Request.Context(), userID, filter)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rewards)
}

// GetEligibleRewards lists rewards the caller can afford right now
// GET /api/v1/loyalty/rewards/eligible
func (h *LoyaltyHandler) GetEligibleRewards(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var filter model.RewardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	rewards, err := h.loyaltyService.GetEligibleRewards(c.Request.Context(), userID, filter)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rewards)
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// AdminAddPoints credits points to an arbitrary account
// POST /api/v1/admin/loyalty/points
func (h *LoyaltyHandler) AdminAddPoints(c *gin.Context) {
	var req model.AddPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	account, err := h.loyaltyService.AddPoints(c.Request.Context(), req.UserID, req.Points, req.Description,
		req.ReferenceID, req.ReferenceType)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, account)
}

// AdminCreateReward adds a reward to the catalog
// POST /api/v1/admin/loyalty/rewards
func (h *LoyaltyHandler) AdminCreateReward(c *gin.Context) {
	var req model.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	reward, err := h.loyaltyService.CreateReward(c.Request.Context(), &req)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, reward)
}

// AdminUpdateReward patches a catalog reward
// PUT /api/v1/admin/loyalty/rewards/:id
func (h *LoyaltyHandler) AdminUpdateReward(c *gin.Context) {
	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid reward ID")
		return
	}

	var req model.UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	reward, err := h.loyaltyService.UpdateReward(c.Request.Context(), rewardID, &req)
	if err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, reward)
}

// AdminDeleteReward deactivates a catalog reward
// DELETE /api/v1/admin/loyalty/rewards/:id
func (h *LoyaltyHandler) AdminDeleteReward(c *gin.Context) {
	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid reward ID")
		return
	}

	if err := h.loyaltyService.DeleteReward(c.Request.Context(), rewardID); err != nil {
		mapLoyaltyError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Reward deactivated successfully",
	})
}

// mapLoyaltyError maps loyalty errors to HTTP responses
func mapLoyaltyError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	switch {
	case errors.Is(err, model.ErrAccountNotFound):
		response.ErrorResponse(c, http.StatusNotFound, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrRewardNotFound):
		response.ErrorResponse(c, http.StatusNotFound, "REWARD_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrRewardInactive):
		response.ErrorResponse(c, http.StatusConflict, "REWARD_INACTIVE", err.Error())
	case errors.Is(err, model.ErrInsufficientPoints):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, "INSUFFICIENT_POINTS", err.Error())
	case errors.Is(err, model.ErrPointsMismatch):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, "POINTS_MISMATCH", err.Error())
	case errors.Is(err, model.ErrTierTooLow):
		response.ErrorResponse(c, http.StatusForbidden, "TIER_TOO_LOW", err.Error())
	case errors.Is(err, model.ErrInvalidPointsAmount):
		response.ErrorResponse(c, http.StatusBadRequest, "INVALID_POINTS", err.Error())
	default:
		response.InternalServerError(c, "Something went wrong")
	}
}
