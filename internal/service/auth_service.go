package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"streamify/api/internal/chat"
	"streamify/api/internal/config"
	"streamify/api/internal/ids"
	"streamify/api/internal/models"
	"streamify/api/internal/repository"
	"streamify/api/internal/security"
)

// ErrInvalidCredentials covers both "no such email" and "wrong password".
// Login must not reveal which one happened.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError reports client-fixable input problems. MissingFields, when
// set, lists the absent required fields by request-body name.
type ValidationError struct {
	Message       string
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserStore is the slice of the credential store the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (models.User, error)
}

// IdentitySyncer records a pending mirror update. Failures are logged by the
// caller and never surfaced to the client.
type IdentitySyncer interface {
	EnqueueUpsert(ctx context.Context, user chat.User) error
}

// ChatTokenIssuer mints credentials for the external chat transport.
type ChatTokenIssuer interface {
	CreateToken(userID string) (string, error)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}$`)

type AuthService struct {
	users  UserStore
	syncer IdentitySyncer
	tokens ChatTokenIssuer
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(users UserStore, syncer IdentitySyncer, tokens ChatTokenIssuer, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		syncer: syncer,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// AuthResult is a committed user record plus a freshly issued session token.
type AuthResult struct {
	User  models.User
	Token string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	var missing []string
	if input.FullName == "" {
		missing = append(missing, "fullName")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return AuthResult{}, &ValidationError{Message: "all fields are required", MissingFields: missing}
	}
	if utf8.RuneCountInString(input.Password) < s.cfg.Security.MinPasswordLen {
		return AuthResult{}, &ValidationError{
			Message: fmt.Sprintf("password should be at least %d characters", s.cfg.Security.MinPasswordLen),
		}
	}
	if !emailPattern.MatchString(input.Email) {
		return AuthResult{}, &ValidationError{Message: "invalid email format"}
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResult{}, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		FullName:     input.FullName,
		AvatarURL:    randomAvatarURL(),
	}

	// The write and the sync enqueue run detached from the request context:
	// a client disconnect mid-flow must not leave a partial record or skip
	// the mirror update for a committed one.
	writeCtx := context.WithoutCancel(ctx)
	if err := s.users.Create(writeCtx, user); err != nil {
		return AuthResult{}, err
	}

	s.enqueueSync(writeCtx, user)

	return s.issueSession(user)
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	var missing []string
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return AuthResult{}, &ValidationError{Message: "all fields are required", MissingFields: missing}
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issueSession(user)
}

type OnboardInput struct {
	FullName         string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	Bio              string
}

func (s *AuthService) Onboard(ctx context.Context, userID string, input OnboardInput) (models.User, error) {
	var missing []string
	if input.FullName == "" {
		missing = append(missing, "fullName")
	}
	if input.NativeLanguage == "" {
		missing = append(missing, "nativeLanguage")
	}
	if input.LearningLanguage == "" {
		missing = append(missing, "learningLanguage")
	}
	if input.Location == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return models.User{}, &ValidationError{Message: "all fields are required", MissingFields: missing}
	}

	onboarded := true
	patch := models.ProfilePatch{
		FullName:         &input.FullName,
		NativeLanguage:   &input.NativeLanguage,
		LearningLanguage: &input.LearningLanguage,
		Location:         &input.Location,
		IsOnboarded:      &onboarded,
	}
	if input.Bio != "" {
		patch.Bio = &input.Bio
	}

	writeCtx := context.WithoutCancel(ctx)
	user, err := s.users.UpdateProfile(writeCtx, userID, patch)
	if err != nil {
		return models.User{}, err
	}

	s.enqueueSync(writeCtx, user)

	return user, nil
}

// ChatToken mints the credential the client presents to the chat transport.
func (s *AuthService) ChatToken(userID string) (string, error) {
	return s.tokens.CreateToken(userID)
}

func (s *AuthService) issueSession(user models.User) (AuthResult, error) {
	token, err := security.GenerateSessionToken(s.cfg.Security.SessionSecret, user.ID, s.cfg.Security.SessionTTL)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

// enqueueSync runs after the primary write has committed; its failure is
// logged and swallowed so a mirror outage never fails the user-facing flow.
func (s *AuthService) enqueueSync(ctx context.Context, user models.User) {
	err := s.syncer.EnqueueUpsert(ctx, chat.User{
		ID:    user.ID,
		Name:  user.FullName,
		Image: user.AvatarURL,
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("enqueue identity sync failed")
	}
}

func randomAvatarURL() string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/personas/svg?seed=user%d", rand.Intn(100)+1)
}
