package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/repository/memory"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider, state, code string) (*dto.LoginResponse, error)
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleUserFetcher exchanges an authorization code for the Google profile.
type GoogleUserFetcher func(ctx context.Context, code string) (*GoogleUser, error)

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	states     *memory.OAuthStateRepository
	googleConf *oauth2.Config
	fetchUser  GoogleUserFetcher
	evaluator  *access.Evaluator
	publisher  events.Publisher
	logger     logger.ILogger
	authCfg    AuthConfig
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	states *memory.OAuthStateRepository,
	cfg config.OAuthConfig,
	evaluator *access.Evaluator,
	publisher events.Publisher,
	log logger.ILogger,
	authCfg AuthConfig,
) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	s := &oauthService{
		uowFactory: uowFactory,
		states:     states,
		googleConf: conf,
		evaluator:  evaluator,
		publisher:  publisher,
		logger:     log,
		authCfg:    authCfg,
	}
	s.fetchUser = s.fetchGoogleUser
	return s
}

// NewOAuthServiceWithFetcher swaps the Google round trip, for tests.
func NewOAuthServiceWithFetcher(
	uowFactory unitofwork.RepositoryFactory,
	states *memory.OAuthStateRepository,
	fetch GoogleUserFetcher,
	evaluator *access.Evaluator,
	log logger.ILogger,
	authCfg AuthConfig,
) IOAuthService {
	return &oauthService{
		uowFactory: uowFactory,
		states:     states,
		googleConf: &oauth2.Config{ClientID: "test", Endpoint: google.Endpoint},
		fetchUser:  fetch,
		evaluator:  evaluator,
		publisher:  events.NopPublisher{},
		logger:     log,
		authCfg:    authCfg,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", apperror.NotFound("unsupported provider")
	}
	if s.googleConf.ClientID == "" {
		return "", apperror.Wrap(apperror.KindConfiguration, "google sign-in unavailable", fmt.Errorf("GOOGLE_CLIENT_ID not set"))
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", apperror.Internal("failed to generate state", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	s.states.Save(state)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider, state, code string) (*dto.LoginResponse, error) {
	if provider != "google" {
		return nil, apperror.NotFound("unsupported provider")
	}
	if !s.states.Consume(state) {
		return nil, apperror.Validation("invalid or expired oauth state")
	}

	googleUser, err := s.fetchUser(ctx, code)
	if err != nil {
		s.logger.Error("OAuth", "Google sign-in failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.Upstream("google sign-in failed", err)
	}
	if !googleUser.VerifiedEmail {
		return nil, apperror.Forbidden("google account email is not verified")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	email := normalizeEmail(googleUser.Email)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}

	now := s.evaluator.Now()
	if user == nil {
		// First sign-in starts the trial just like a password registration.
		user = newTrialUser(email, googleUser.Name, now, s.authCfg.TrialDuration)
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
		if googleUser.Picture != "" {
			user.AvatarURL = &googleUser.Picture
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, apperror.Internal("failed to create user", err)
		}
		s.logger.Info("OAuth", "New user created from Google sign-in", map[string]interface{}{"user_id": user.Id})

		if err := s.publisher.Publish(ctx, events.New(events.UserRegistered, now, map[string]interface{}{
			"user_id": user.Id.String(),
			"email":   user.Email,
			"source":  "google",
		})); err != nil {
			s.logger.Warn("OAuth", "Failed to publish USER_REGISTERED", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := uow.UserRepository().SaveUserProvider(ctx, &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   "google",
		ProviderUserId: googleUser.ID,
		AvatarURL:      googleUser.Picture,
		CreatedAt:      now,
	}); err != nil {
		return nil, apperror.Internal("failed to save provider info", err)
	}

	return issueLoginResponse(s.authCfg, user)
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	resp, err := s.googleConf.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var googleUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &googleUser, nil
}
