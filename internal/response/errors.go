package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrUsernameTaken      ErrCode = "USERNAME_TAKEN"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// Authorization
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// Exam rooms
	ErrInvalidState     ErrCode = "INVALID_STATE"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrPaperNotFound    ErrCode = "PAPER_NOT_FOUND"
	ErrPaperIsDraft     ErrCode = "PAPER_IS_DRAFT"

	// Paper assembly
	ErrInsufficientQuestions ErrCode = "INSUFFICIENT_QUESTIONS"
	ErrEmptyRules            ErrCode = "EMPTY_RULES"
	ErrEmptyEntries          ErrCode = "EMPTY_ENTRIES"
	ErrDuplicateEntry        ErrCode = "DUPLICATE_ENTRY"
	ErrUnknownQuestionType   ErrCode = "UNKNOWN_QUESTION_TYPE"

	// Rate limiting
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid username or password."
	case ErrUsernameTaken:
		return "This username is already taken."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrDependencyExists:
		return "This data is still referenced by other data and cannot be deleted."

	case ErrInvalidState:
		return "The exam session does not allow this operation in its current state."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrPaperNotFound:
		return "Paper not found."
	case ErrPaperIsDraft:
		return "This paper has not been published yet."

	case ErrInsufficientQuestions:
		return "The question bank does not hold enough questions to satisfy the rules."
	case ErrEmptyRules:
		return "At least one assembly rule is required."
	case ErrEmptyEntries:
		return "At least one paper entry is required."
	case ErrDuplicateEntry:
		return "A question may appear on a paper only once."
	case ErrUnknownQuestionType:
		return "Unknown question type."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
