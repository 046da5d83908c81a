package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"citylog/internal/common"
	"citylog/internal/common/security"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"
	"citylog/internal/platform/email"

	"github.com/google/uuid"
)

const resetTokenTTL = 10 * time.Minute

type AuthService struct {
	users  repository.UserRepository
	tokens *security.TokenIssuer
	mailer email.Mailer
}

func NewAuthService(users repository.UserRepository, tokens *security.TokenIssuer, mailer email.Mailer) *AuthService {
	return &AuthService{users: users, tokens: tokens, mailer: mailer}
}

type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	User  *model.User
	Token string
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)

	if err := validateName("First name", req.FirstName); err != nil {
		return nil, err
	}
	if err := validateName("Last name", req.LastName); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validatePhoneNumber(req.PhoneNumber); err != nil {
		return nil, err
	}
	if err := validatePasswordPair(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, common.NewError(common.ErrBadRequest,
			"A user exists with this email; if it's you, please login.")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Role:           model.RoleUser,
		HashedPassword: hashedPassword,
	}

	// The unique indexes still guard the insert against races on email/phone.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.NewError(common.ErrBadRequest, "Please provide an email and password.")
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewError(common.ErrNotAuthenticated, "Incorrect email or password")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPassword(req.Password, user.HashedPassword) {
		return nil, common.NewError(common.ErrNotAuthenticated, "Incorrect email or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ForgotPassword issues a single-use reset token and mails the reset link.
// The plaintext token never leaves this method except through the mailer; if
// delivery fails the token columns are rolled back so no dangling valid token
// remains.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr, resetURLBase string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return common.NewError(common.ErrBadRequest, "Email is required! Please provide your email address")
	}

	user, err := s.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewError(common.ErrNotFound, "There is no user with this email address")
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	plaintext, digest, err := security.NewResetToken()
	if err != nil {
		return err
	}

	user.ResetTokenHash = digest
	user.ResetTokenExpires = time.Now().Add(resetTokenTTL)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := strings.TrimSuffix(resetURLBase, "/") + "/" + plaintext
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FirstName, resetURL); err != nil {
		user.ResetTokenHash = ""
		user.ResetTokenExpires = time.Time{}
		if rbErr := s.users.Update(ctx, user); rbErr != nil {
			return fmt.Errorf("failed to roll back reset token after mail error %v: %w", err, rbErr)
		}
		return common.NewError(common.ErrInternalServer,
			"There was an error in sending the email, try again later.")
	}
	return nil
}

// ResetPassword consumes a reset token: the lookup requires an unexpired
// token, and a successful reset clears both token fields so a replay fails.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if password == "" || confirmPassword == "" {
		return common.NewError(common.ErrBadRequest, "Password & Confirm Password are required")
	}

	user, err := s.users.FindByResetTokenHash(ctx, security.HashResetToken(token), time.Now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.NewError(common.ErrBadRequest, "Token is invalid or link has expired")
		}
		return fmt.Errorf("failed to find user by reset token: %w", err)
	}

	if err := validatePasswordPair(password, confirmPassword); err != nil {
		return err
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.HashedPassword = hashedPassword
	user.PasswordChangedAt = passwordChangeStamp()
	user.ResetTokenHash = ""
	user.ResetTokenExpires = time.Time{}
	return s.users.Update(ctx, user)
}

// UpdatePassword changes the password of an authenticated user and reissues a
// session token, since the change invalidates every previously issued one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, password, confirmPassword string) (*AuthResult, error) {
	if currentPassword == "" || password == "" || confirmPassword == "" {
		return nil, common.NewError(common.ErrBadRequest,
			"Current Password, Password, Confirm Password are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !security.CheckPassword(currentPassword, user.HashedPassword) {
		return nil, common.NewError(common.ErrNotAuthenticated, "Your current password is wrong.")
	}

	if err := validatePasswordPair(password, confirmPassword); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user.HashedPassword = hashedPassword
	user.PasswordChangedAt = passwordChangeStamp()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// passwordChangeStamp backdates the change by a second so a token issued in
// the same second as the write still passes the stale-session comparison.
func passwordChangeStamp() time.Time {
	return time.Now().Add(-1 * time.Second)
}
