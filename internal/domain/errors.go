package domain

import "errors"

var (
	// ErrProfileNotFound is returned when no profile exists for an account.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDailyQuestionsNotFound indicates the requested question set does not exist.
	ErrDailyQuestionsNotFound = errors.New("daily questions not found")
	// ErrInsufficientPoints is returned when a purchase costs more than the balance.
	ErrInsufficientPoints = errors.New("not enough points")
	// ErrShieldCapacity is returned when a purchase would exceed the shield cap.
	ErrShieldCapacity = errors.New("shield capacity reached")
	// ErrUsernameTaken indicates the display name is already in use.
	ErrUsernameTaken = errors.New("username already in use")
	// ErrProfileConflict means a concurrent writer won the conditional update.
	ErrProfileConflict = errors.New("profile was modified concurrently")
)
