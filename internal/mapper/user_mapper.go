package mapper

import (
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:              u.Id,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		FullName:        u.FullName,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		AvatarURL:       u.AvatarURL,

		SubscriptionStatus:          entity.SubscriptionStatus(u.SubscriptionStatus),
		TrialStartDate:              u.TrialStartDate,
		TrialEndDate:                u.TrialEndDate,
		SubscriptionStartDate:       u.SubscriptionStartDate,
		SubscriptionEndDate:         u.SubscriptionEndDate,
		NextBillingDate:             u.NextBillingDate,
		ExternalCustomerId:          u.ExternalCustomerId,
		ExternalSubscriptionId:      u.ExternalSubscriptionId,
		LastPaymentDate:             u.LastPaymentDate,
		SubscriptionCancelledDate:   u.SubscriptionCancelledDate,
		CancelReason:                u.CancelReason,
		SubscriptionReactivatedDate: u.SubscriptionReactivatedDate,

		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:              u.Id,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		FullName:        u.FullName,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		AvatarURL:       u.AvatarURL,

		SubscriptionStatus:          string(u.SubscriptionStatus),
		TrialStartDate:              u.TrialStartDate,
		TrialEndDate:                u.TrialEndDate,
		SubscriptionStartDate:       u.SubscriptionStartDate,
		SubscriptionEndDate:         u.SubscriptionEndDate,
		NextBillingDate:             u.NextBillingDate,
		ExternalCustomerId:          u.ExternalCustomerId,
		ExternalSubscriptionId:      u.ExternalSubscriptionId,
		LastPaymentDate:             u.LastPaymentDate,
		SubscriptionCancelledDate:   u.SubscriptionCancelledDate,
		CancelReason:                u.CancelReason,
		SubscriptionReactivatedDate: u.SubscriptionReactivatedDate,

		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}

// Token Mappers

func (m *UserMapper) PasswordResetTokenToEntity(t *model.PasswordResetToken) *entity.PasswordResetToken {
	if t == nil {
		return nil
	}
	return &entity.PasswordResetToken{
		Id:        t.Id,
		UserId:    t.UserId,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) PasswordResetTokenToModel(t *entity.PasswordResetToken) *model.PasswordResetToken {
	if t == nil {
		return nil
	}
	return &model.PasswordResetToken{
		Id:        t.Id,
		UserId:    t.UserId,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		Used:      t.Used,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) UserProviderToModel(p *entity.UserProvider) *model.UserProvider {
	if p == nil {
		return nil
	}
	return &model.UserProvider{
		Id:             p.Id,
		UserId:         p.UserId,
		ProviderName:   p.ProviderName,
		ProviderUserId: p.ProviderUserId,
		AvatarURL:      p.AvatarURL,
		CreatedAt:      p.CreatedAt,
	}
}

func (m *UserMapper) EmailVerificationTokenToEntity(t *model.EmailVerificationToken) *entity.EmailVerificationToken {
	if t == nil {
		return nil
	}
	return &entity.EmailVerificationToken{
		Id:        t.Id,
		UserId:    t.UserId,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}

func (m *UserMapper) EmailVerificationTokenToModel(t *entity.EmailVerificationToken) *model.EmailVerificationToken {
	if t == nil {
		return nil
	}
	return &model.EmailVerificationToken{
		Id:        t.Id,
		UserId:    t.UserId,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}
