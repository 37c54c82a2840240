package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserProfileResponse never carries the credential hash.
type UserProfileResponse struct {
	Id                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	AvatarURL          string     `json:"avatar_url,omitempty"`
	EmailVerified      bool       `json:"email_verified"`
	SubscriptionStatus string     `json:"subscription_status"`
	EffectiveStatus    string     `json:"effective_status"`
	HasAccess          bool       `json:"has_access"`
	TrialEndDate       *time.Time `json:"trial_end_date"`
	CreatedAt          time.Time  `json:"created_at"`
}
