package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/guard"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/mailer"
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL        = 15 * time.Minute
	resetTokenTTL = time.Hour
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error
	ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest) error
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress string) (*dto.LoginResponse, error)
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type AuthConfig struct {
	JwtSecret     string
	JwtTTL        time.Duration
	TrialDuration time.Duration
}

func NewAuthConfig(cfg *config.Config) AuthConfig {
	return AuthConfig{
		JwtSecret:     cfg.App.JwtSecret,
		JwtTTL:        cfg.App.JwtTTL,
		TrialDuration: cfg.Subscription.TrialDuration,
	}
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	outbox     EmailOutbox
	publisher  events.Publisher
	limiter    guard.Limiter
	evaluator  *access.Evaluator
	logger     logger.ILogger
	cfg        AuthConfig
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	outbox EmailOutbox,
	publisher events.Publisher,
	limiter guard.Limiter,
	evaluator *access.Evaluator,
	log logger.ILogger,
	cfg AuthConfig,
) IAuthService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &authService{
		uowFactory: uowFactory,
		outbox:     outbox,
		publisher:  publisher,
		limiter:    limiter,
		evaluator:  evaluator,
		logger:     log,
		cfg:        cfg,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newTrialUser builds a User Record that starts its trial now.
func newTrialUser(email, fullName string, now time.Time, trial time.Duration) *entity.User {
	trialEnd := now.Add(trial)
	return &entity.User{
		Id:                 uuid.New(),
		Email:              email,
		FullName:           strings.TrimSpace(fullName),
		SubscriptionStatus: entity.SubscriptionStatusTrial,
		TrialStartDate:     &now,
		TrialEndDate:       &trialEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := normalizeEmail(req.Email)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal("failed to check email", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	hashStr := string(hash)

	now := s.evaluator.Now()
	user := newTrialUser(email, req.FullName, now, s.cfg.TrialDuration)
	user.PasswordHash = &hashStr

	otpCode, err := generateOTP()
	if err != nil {
		return nil, apperror.Internal("failed to generate otp", err)
	}

	// User + token in one transaction
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("failed to start transaction", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}
	if err := uow.UserRepository().CreateEmailVerificationToken(ctx, &entity.EmailVerificationToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		Token:     otpCode,
		ExpiresAt: now.Add(otpTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, apperror.Internal("failed to create verification token", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal("failed to commit registration", err)
	}

	s.enqueue(ctx, mailer.Job{Kind: mailer.JobOTP, To: user.Email, Data: map[string]string{"otp": otpCode}})

	if err := s.publisher.Publish(ctx, events.New(events.UserRegistered, now, map[string]interface{}{
		"user_id":        user.Id.String(),
		"email":          user.Email,
		"trial_end_date": user.TrialEndDate.Format(time.RFC3339),
	})); err != nil {
		s.logger.Warn("Auth", "Failed to publish USER_REGISTERED", map[string]interface{}{"error": err.Error()})
	}

	s.logger.Info("Auth", "User registered", map[string]interface{}{"user_id": user.Id})
	return &dto.RegisterResponse{Id: user.Id, Email: user.Email, TrialEndDate: *user.TrialEndDate}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return apperror.NotFound("user not found")
	}
	if user.EmailVerified {
		return nil
	}

	token, err := uow.UserRepository().FindEmailVerificationToken(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ByToken{Token: req.Token},
	)
	if err != nil {
		return apperror.Internal("failed to load otp", err)
	}
	if token == nil {
		return apperror.Validation("invalid otp code")
	}

	now := s.evaluator.Now()
	if now.After(token.ExpiresAt) {
		return apperror.Validation("otp code expired")
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal("failed to start transaction", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().MarkEmailVerified(ctx, user.Id, now); err != nil {
		return apperror.Internal("failed to verify email", err)
	}
	if err := uow.UserRepository().DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
		return apperror.Internal("failed to clear otp", err)
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal("failed to commit verification", err)
	}
	return nil
}

// ResendVerification is silent for unknown or already verified emails so it
// cannot be used to probe accounts.
func (s *authService) ResendVerification(ctx context.Context, req *dto.ResendVerificationRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return apperror.Internal("failed to load user", err)
	}
	if user == nil || user.EmailVerified {
		return nil
	}

	otpCode, err := generateOTP()
	if err != nil {
		return apperror.Internal("failed to generate otp", err)
	}
	now := s.evaluator.Now()

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal("failed to start transaction", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
		return apperror.Internal("failed to clear otp", err)
	}
	if err := uow.UserRepository().CreateEmailVerificationToken(ctx, &entity.EmailVerificationToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		Token:     otpCode,
		ExpiresAt: now.Add(otpTTL),
		CreatedAt: now,
	}); err != nil {
		return apperror.Internal("failed to create verification token", err)
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal("failed to commit otp", err)
	}

	s.enqueue(ctx, mailer.Job{Kind: mailer.JobOTP, To: user.Email, Data: map[string]string{"otp": otpCode}})
	return nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress string) (*dto.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	allowed, err := s.limiter.Allow(ctx, ipAddress+"|"+email)
	if err != nil {
		// Limiter backend down: let the attempt through rather than lock everyone out.
		s.logger.Warn("Auth", "Rate limiter unavailable", map[string]interface{}{"error": err.Error()})
	} else if !allowed {
		return nil, apperror.RateLimited("too many login attempts, please try again later")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if user.PasswordHash == nil {
		return nil, apperror.Unauthorized("this account uses Google sign-in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !user.EmailVerified {
		return nil, apperror.Forbidden("email not verified, please check your inbox for the otp code")
	}

	return s.issueToken(user)
}

func (s *authService) issueToken(user *entity.User) (*dto.LoginResponse, error) {
	return issueLoginResponse(s.cfg, user)
}

func issueLoginResponse(cfg AuthConfig, user *entity.User) (*dto.LoginResponse, error) {
	token, err := serverutils.GenerateToken(cfg.JwtSecret, user.Id, user.Email, cfg.JwtTTL)
	if err != nil {
		return nil, apperror.Internal("failed to sign token", err)
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(cfg.JwtTTL.Seconds()),
		User: dto.UserDTO{
			Id:                 user.Id,
			Email:              user.Email,
			FullName:           user.FullName,
			SubscriptionStatus: string(user.SubscriptionStatus),
		},
	}, nil
}

func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil || user == nil {
		// Don't leak exists
		return nil
	}

	now := s.evaluator.Now()
	token := uuid.New().String()
	if err := uow.UserRepository().CreatePasswordResetToken(ctx, &entity.PasswordResetToken{
		Id:        uuid.New(),
		UserId:    user.Id,
		Token:     token,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return apperror.Internal("failed to create reset token", err)
	}

	s.enqueue(ctx, mailer.Job{Kind: mailer.JobResetToken, To: user.Email, Data: map[string]string{"token": token}})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	token, err := uow.UserRepository().FindPasswordResetToken(ctx,
		specification.ByToken{Token: req.Token},
		specification.NotUsed{},
	)
	if err != nil {
		return apperror.Internal("failed to load reset token", err)
	}
	if token == nil {
		return apperror.Validation("invalid or used reset token")
	}
	if s.evaluator.Now().After(token.ExpiresAt) {
		return apperror.Validation("reset token expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal("failed to start transaction", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdatePassword(ctx, token.UserId, string(hash)); err != nil {
		return apperror.Internal("failed to update password", err)
	}
	if err := uow.UserRepository().MarkTokenUsed(ctx, token.Id); err != nil {
		return apperror.Internal("failed to consume reset token", err)
	}
	return uow.Commit()
}

func (s *authService) enqueue(ctx context.Context, job mailer.Job) {
	if s.outbox == nil {
		return
	}
	if err := s.outbox.Enqueue(ctx, job); err != nil {
		s.logger.Error("Auth", "Failed to queue email", map[string]interface{}{
			"kind":  job.Kind,
			"to":    job.To,
			"error": err.Error(),
		})
	}
}
