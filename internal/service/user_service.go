package service

import (
	"context"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/pkg/access"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	evaluator  *access.Evaluator
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, evaluator *access.Evaluator) IUserService {
	return &userService{
		uowFactory: uowFactory,
		evaluator:  evaluator,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	avatarURL := ""
	if user.AvatarURL != nil {
		avatarURL = *user.AvatarURL
	}

	return &dto.UserProfileResponse{
		Id:                 user.Id,
		Email:              user.Email,
		FullName:           user.FullName,
		AvatarURL:          avatarURL,
		EmailVerified:      user.EmailVerified,
		SubscriptionStatus: string(user.SubscriptionStatus),
		EffectiveStatus:    string(s.evaluator.EffectiveStatus(user)),
		HasAccess:          s.evaluator.CanAccessPremiumFeatures(user),
		TrialEndDate:       user.TrialEndDate,
		CreatedAt:          user.CreatedAt,
	}, nil
}
