package ports

import (
	"context"

	"github.com/greenmiles/rewards-api/internal/core/domain"
)

// SignUpInput carries the fields of a new account. Empty strings mean "not set".
type SignUpInput struct {
	Username       string
	Password       string
	Email          string
	ProfilePicture string
	GoogleID       string
	Role           string
}

// GoogleProfile is the identity asserted by the simulated Google login.
type GoogleProfile struct {
	Username       string
	Email          string
	ProfilePicture string
	GoogleID       string
}

// GoogleLoginResult is the outcome of a find-or-create login.
type GoogleLoginResult struct {
	Snapshot *UserSnapshot
	Created  bool
}

// UserService manages account creation and the simulated external login.
type UserService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, error)
	GoogleLogin(ctx context.Context, profile GoogleProfile) (*GoogleLoginResult, error)
}
