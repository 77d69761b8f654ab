package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// UserService implements account creation and the simulated Google login.
type UserService struct {
	store      ports.LedgerStore
	accounting ports.AccountingService
	bcryptCost int
	log        zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(store ports.LedgerStore, accounting ports.AccountingService, bcryptCost int, log zerolog.Logger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{store: store, accounting: accounting, bcryptCost: bcryptCost, log: log}
}

// SignUp creates a new account. The role defaults to commuter and the password,
// when given, is stored as a bcrypt hash.
func (s *UserService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	role := domain.RoleCommuter
	if in.Role != "" {
		role = domain.Role(in.Role)
		if !role.Valid() {
			return nil, domain.NewValidationError("role must be one of commuter, business, cityPlanner")
		}
	}

	user := &domain.User{
		Username:       username,
		Email:          strings.TrimSpace(in.Email),
		ProfilePicture: in.ProfilePicture,
		GoogleID:       in.GoogleID,
		Role:           role,
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("sign up: hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	s.log.Info().Int64("user_id", created.ID).Str("role", string(created.Role)).Msg("user signed up")
	return created, nil
}

// GoogleLogin finds the user by Google id, then by email, and creates a
// commuter account when neither matches. A user found by email gets the
// Google id and picture linked to it.
func (s *UserService) GoogleLogin(ctx context.Context, p ports.GoogleProfile) (*ports.GoogleLoginResult, error) {
	if p.GoogleID == "" {
		return nil, domain.NewValidationError("googleId is required")
	}

	var (
		userID  int64
		created bool
	)
	err := s.store.WithTx(ctx, func(tx ports.LedgerStore) error {
		if u, err := tx.FindUserByGoogleID(ctx, p.GoogleID); err == nil {
			userID = u.ID
			return nil
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}

		if p.Email != "" {
			u, err := tx.FindUserByEmail(ctx, p.Email)
			switch {
			case err == nil:
				patch := domain.UserPatch{GoogleID: &p.GoogleID}
				if p.ProfilePicture != "" {
					patch.ProfilePicture = &p.ProfilePicture
				}
				if _, err := tx.UpdateUser(ctx, u.ID, patch); err != nil {
					return err
				}
				userID = u.ID
				return nil
			case !errors.Is(err, domain.ErrUserNotFound):
				return err
			}
		}

		username := strings.TrimSpace(p.Username)
		if username == "" {
			return domain.NewValidationError("username is required")
		}
		u, err := tx.CreateUser(ctx, &domain.User{
			Username:       username,
			Email:          p.Email,
			ProfilePicture: p.ProfilePicture,
			GoogleID:       p.GoogleID,
			Role:           domain.RoleCommuter,
		})
		if err != nil {
			return err
		}
		userID, created = u.ID, true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}

	snapshot, err := s.accounting.ComputeUserSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", userID).Bool("created", created).Msg("google login")
	return &ports.GoogleLoginResult{Snapshot: snapshot, Created: created}, nil
}
