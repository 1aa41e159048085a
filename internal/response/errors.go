package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attendance ledger ─────────────────────────────────────────────
	// ErrLinkageInconsistent: a makeup's origin (or an absence's makeup)
	// cannot be located. ErrPartialBatch: some inserts of a
	// materialization batch failed and need manual reconciliation.
	ErrLinkageInconsistent ErrCode = "LINKAGE_INCONSISTENT"
	ErrPartialBatch        ErrCode = "PARTIAL_BATCH_FAILURE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "아이디 또는 비밀번호가 올바르지 않습니다."
	case ErrTokenRequired:
		return "인증 토큰이 필요합니다."
	case ErrTokenInvalid:
		return "인증 토큰이 유효하지 않습니다."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "입력값이 올바르지 않습니다. 다시 확인해주세요."
	case ErrInvalidID:
		return "ID 형식이 올바르지 않습니다."
	case ErrInvalidPayload:
		return "요청 본문이 올바르지 않습니다."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "요청한 데이터를 찾을 수 없습니다."
	case ErrConflict:
		return "이미 존재하는 데이터입니다."

	// ─── Attendance ledger ─────────────────────────────────────────────
	case ErrLinkageInconsistent:
		return "연결된 보강 수업을 찾을 수 없습니다."
	case ErrPartialBatch:
		return "수업 일괄 생성 중 일부가 실패했습니다. 수동 확인이 필요합니다."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "서버 내부 오류가 발생했습니다."
	default:
		return "알 수 없는 오류가 발생했습니다."
	}
}
