package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/postboard/internal/auth"
	"github.com/xxxsen/postboard/internal/model"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
	"github.com/xxxsen/postboard/internal/pkg/password"
	"github.com/xxxsen/postboard/internal/pkg/timeutil"
)

type SignupInput struct {
	Email    string `validate:"required,email"`
	Name     string
	Password string `validate:"required,min=4"`
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthData struct {
	Token  string
	UserID string
}

var signupMessages = map[string]string{
	"Email":    "email address is malformed",
	"Password": "password must be at least 4 characters",
}

type AuthService struct {
	users      UserStore
	tokens     *TokenService
	bcryptCost int
	validate   *validator.Validate
	now        func() int64
}

func NewAuthService(users UserStore, tokens *TokenService, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		now:        timeutil.NowUnixMilli,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	if err := s.validateSignup(in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, appErr.Conflict("an account with this email already exists")
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	hash, err := password.HashWithCost(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &model.User{
		ID:           newID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Status:       model.DefaultUserStatus,
		PostIDs:      []string{},
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErr.IsConflict(err) {
			return nil, appErr.Conflict("an account with this email already exists")
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// validateSignup reports every failing field at once.
func (s *AuthService) validateSignup(in SignupInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	details := make([]appErr.Detail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, appErr.Detail{
			Field:   strings.ToLower(fe.Field()),
			Message: signupMessages[fe.Field()],
		})
	}
	return appErr.Validation("invalid signup input", details)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthData, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, &appErr.Error{Kind: appErr.ErrNotFound, Code: http.StatusUnauthorized, Message: "no user matches this email"}
		}
		return nil, err
	}
	if err := password.Compare(user.PasswordHash, in.Password); err != nil {
		return nil, appErr.Unauthorized("email or password is incorrect")
	}
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthData{Token: token, UserID: user.ID}, nil
}

// Me returns the record behind the authenticated identity.
func (s *AuthService) Me(ctx context.Context, id *auth.Identity) (*model.User, error) {
	if id == nil {
		return nil, errNotAuthenticated()
	}
	return s.loadIdentityUser(ctx, id)
}

func (s *AuthService) UpdateStatus(ctx context.Context, id *auth.Identity, status string) (*model.User, error) {
	if id == nil {
		return nil, errNotAuthenticated()
	}
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, appErr.Validation("invalid status", []appErr.Detail{{Field: "status", Message: "status must not be empty"}})
	}
	user, err := s.loadIdentityUser(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.users.UpdateStatus(ctx, user.ID, status, now); err != nil {
		return nil, err
	}
	user.Status = status
	user.Mtime = now
	return user, nil
}

func (s *AuthService) loadIdentityUser(ctx context.Context, id *auth.Identity) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.Unauthorized("authenticated user no longer exists")
		}
		return nil, err
	}
	return user, nil
}

func errNotAuthenticated() error {
	return appErr.Unauthorized("not authenticated")
}
