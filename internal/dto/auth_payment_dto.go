package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Auth DTOs ---

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterResponse struct {
	Id           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	TrialEndDate time.Time `json:"trial_end_date"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required,len=6,numeric"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	User        UserDTO `json:"user"`
}

type UserDTO struct {
	Id                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FullName           string    `json:"full_name"`
	SubscriptionStatus string    `json:"subscription_status"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// --- Subscription DTOs ---

type CreateCheckoutRequest struct {
	UserId    uuid.UUID `json:"user_id" validate:"required"`
	UserEmail string    `json:"user_email" validate:"omitempty,email"`
	OriginURL string    `json:"origin_url" validate:"required,url"`
}

type CreateCheckoutResponse struct {
	URL       string `json:"url"`
	SessionId string `json:"session_id"`
}

type CheckoutStatusResponse struct {
	SessionId     string            `json:"session_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type LifecycleResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Handled  bool   `json:"handled"`
	Outcome  string `json:"outcome,omitempty"`
}
