package health

import "errors"

var (
	ErrInvalidRequest = errors.New("asset_id and tenant_id required")
	ErrAssetNotFound  = errors.New("asset not found")
	ErrPersistence    = errors.New("failed to save health score")
)

// ErrorReason is a short label for the class of err, used in logs and metrics.
func ErrorReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrAssetNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "unclassified"
	}
}
