package service

type ErrorCode string

const (
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeNotAuthorized      ErrorCode = "NOT_AUTHORIZED"
	ErrorCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrorCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
	ErrorCodeBadCredentials     ErrorCode = "BAD_CREDENTIALS"
	ErrorCodeAlreadyMember      ErrorCode = "ALREADY_MEMBER"
	ErrorCodeInvitationPending  ErrorCode = "INVITATION_PENDING"
	ErrorCodeInvitationResolved ErrorCode = "INVITATION_RESOLVED"
	ErrorCodeUnspecified        ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
