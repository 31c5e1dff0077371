package services

import "errors"

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified domain failure. Sentinels below are compared with
// errors.Is; anything that is not an *Error is treated as internal.
type Error struct {
	Kind    ErrorKind
	Message string

	parent *Error
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is the sentinel e refines.
func (e *Error) Is(target error) bool {
	return e.parent != nil && target == error(e.parent)
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func refine(parent *Error, msg string) *Error {
	return &Error{Kind: parent.Kind, Message: msg, parent: parent}
}

var (
	ErrInvalidAssertion = newError(KindAuth, "invalid identity token")
	ErrAccountDisabled  = newError(KindForbidden, "account is disabled")
	ErrConflict         = newError(KindConflict, "resource already exists")

	ErrTokenExpired   = newError(KindAuth, "token has expired")
	ErrTokenInvalid   = newError(KindAuth, "token is invalid")
	ErrWrongTokenType = newError(KindAuth, "token is not a refresh token")

	ErrUserNotFound    = newError(KindNotFound, "user not found")
	ErrSessionNotFound = newError(KindNotFound, "refresh token not found")
	ErrSessionExpired  = newError(KindAuth, "refresh token has expired")

	ErrSelfRequest      = newError(KindValidation, "cannot send a friend request to yourself")
	ErrDuplicateRequest = newError(KindConflict, "a friend request already exists")
	ErrAlreadyFriends   = refine(ErrDuplicateRequest, "users are already friends")
	ErrRequestNotFound  = newError(KindNotFound, "friend request not found")
	ErrForbidden        = newError(KindForbidden, "not allowed")
)

// KindOf classifies err by the first *Error in its chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
