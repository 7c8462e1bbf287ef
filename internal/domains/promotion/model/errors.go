package model

type ErrorCode string

const (
	// Lookup and conflict errors
	ErrCodePromoNotFound      ErrorCode = "PROMO_NOT_FOUND"      // 404
	ErrCodePromoDuplicateCode ErrorCode = "PROMO_DUPLICATE_CODE" // 409
	ErrCodePromoAlreadyUsed   ErrorCode = "PROMO_ALREADY_USED"   // 409
	ErrCodeProviderNotFound   ErrorCode = "PROVIDER_NOT_FOUND"   // 404

	// Validation errors (400)
	ErrCodeInvalidDateRange ErrorCode = "VAL_INVALID_DATE_RANGE"
	ErrCodeValidationFailed ErrorCode = "VAL_INVALID_INPUT"

	// Business errors
	ErrCodeUsageLimitReached ErrorCode = "PROMO_USAGE_LIMIT_REACHED" // 409

	// System errors (500)
	ErrCodeInternalError ErrorCode = "SYS_INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Predefined errors
var (
	ErrPromotionNotFound = &AppError{
		Code:       ErrCodePromoNotFound,
		Message:    "Promotion code not found",
		HTTPStatus: 404,
	}

	ErrDuplicateCode = &AppError{
		Code:       ErrCodePromoDuplicateCode,
		Message:    "A promotion with this code already exists",
		HTTPStatus: 409,
	}

	ErrAlreadyUsed = &AppError{
		Code:       ErrCodePromoAlreadyUsed,
		Message:    "Promotion already used by this customer",
		HTTPStatus: 409,
	}

	ErrProviderNotFound = &AppError{
		Code:       ErrCodeProviderNotFound,
		Message:    "Provider not found",
		HTTPStatus: 404,
	}

	ErrInvalidDateRange = &AppError{
		Code:       ErrCodeInvalidDateRange,
		Message:    "Start date must be before end date",
		HTTPStatus: 400,
	}

	ErrUsageLimitReached = &AppError{
		Code:       ErrCodeUsageLimitReached,
		Message:    "Promotion usage limit reached",
		HTTPStatus: 409,
	}
)
