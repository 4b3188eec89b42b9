package service

// Kind classifies a business-rule failure so the handler layer can map it to
// a caller-facing status without inspecting messages.
type Kind int

const (
	// KindValidation marks malformed input: bad date order, out-of-range
	// rating, unrecognized status or genre, short search term.
	KindValidation Kind = iota
	// KindConflict marks a uniqueness violation: duplicate email or username.
	KindConflict
	// KindAuth marks bad credentials or an invalid token-resolved identity.
	KindAuth
	// KindNotFound marks a missing target. A book owned by someone else is
	// reported the same way as a book that does not exist.
	KindNotFound
)

// Error is a business-rule failure raised by the service layer.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

var (
	ErrInvalidCredentials = &Error{Kind: KindAuth, Message: "invalid email or password"}
	ErrWrongPassword      = &Error{Kind: KindAuth, Message: "current password is incorrect"}
	ErrPasswordIncorrect  = &Error{Kind: KindAuth, Message: "password is incorrect"}

	ErrEmailTaken    = &Error{Kind: KindConflict, Message: "email already registered"}
	ErrUsernameTaken = &Error{Kind: KindConflict, Message: "username already taken"}

	ErrUserNotFound = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrBookNotFound = &Error{Kind: KindNotFound, Message: "book not found"}

	ErrEndBeforeStart     = validationError("end date cannot be before start date")
	ErrInvalidRating      = validationError("rating must be between 1 and 5")
	ErrSearchTermTooShort = validationError("search term must be at least 2 characters")
)
