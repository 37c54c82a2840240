// Package access decides whether a user may use premium features. Every
// decision is recomputed from the stored timestamps; nothing is cached and no
// background job ever writes an "expired" status.
package access

import (
	"time"

	"ai-recipe-be/internal/entity"
)

// Status is a read-only projection for client display. It never carries
// credentials or payment linkage.
type Status struct {
	HasAccess           bool                      `json:"has_access"`
	SubscriptionStatus  entity.SubscriptionStatus `json:"subscription_status"`
	EffectiveStatus     entity.SubscriptionStatus `json:"effective_status"`
	TrialActive         bool                      `json:"trial_active"`
	SubscriptionActive  bool                      `json:"subscription_active"`
	TrialStartDate      *time.Time                `json:"trial_start_date"`
	TrialEndDate        *time.Time                `json:"trial_end_date"`
	SubscriptionEndDate *time.Time                `json:"subscription_end_date"`
	NextBillingDate     *time.Time                `json:"next_billing_date"`
}

// IsTrialActive is true iff trial_end is set and still in the future.
// A missing trial end fails closed.
func IsTrialActive(u *entity.User, now time.Time) bool {
	if u == nil || u.TrialEndDate == nil {
		return false
	}
	return now.Before(*u.TrialEndDate)
}

// IsSubscriptionActive requires status active AND a future subscription_end.
// An active status with no end date is a data anomaly and grants nothing.
func IsSubscriptionActive(u *entity.User, now time.Time) bool {
	if u == nil || u.SubscriptionStatus != entity.SubscriptionStatusActive {
		return false
	}
	if u.SubscriptionEndDate == nil {
		return false
	}
	return now.Before(*u.SubscriptionEndDate)
}

func CanAccessPremiumFeatures(u *entity.User, now time.Time) bool {
	return IsTrialActive(u, now) || IsSubscriptionActive(u, now)
}

// EffectiveStatus reports "expired" for a lapsed trial or lapsed paid period.
// Display only: the stored status is never rewritten from here.
func EffectiveStatus(u *entity.User, now time.Time) entity.SubscriptionStatus {
	switch u.SubscriptionStatus {
	case entity.SubscriptionStatusTrial:
		if !IsTrialActive(u, now) {
			return entity.SubscriptionStatusExpired
		}
	case entity.SubscriptionStatusActive:
		if !IsSubscriptionActive(u, now) {
			return entity.SubscriptionStatusExpired
		}
	}
	return u.SubscriptionStatus
}

func GetAccessStatus(u *entity.User, now time.Time) Status {
	trial := IsTrialActive(u, now)
	sub := IsSubscriptionActive(u, now)
	return Status{
		HasAccess:           trial || sub,
		SubscriptionStatus:  u.SubscriptionStatus,
		EffectiveStatus:     EffectiveStatus(u, now),
		TrialActive:         trial,
		SubscriptionActive:  sub,
		TrialStartDate:      u.TrialStartDate,
		TrialEndDate:        u.TrialEndDate,
		SubscriptionEndDate: u.SubscriptionEndDate,
		NextBillingDate:     u.NextBillingDate,
	}
}

// Evaluator binds the checks to a clock so services stay testable.
type Evaluator struct {
	now func() time.Time
}

func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

func (e *Evaluator) Now() time.Time {
	return e.now()
}

func (e *Evaluator) IsTrialActive(u *entity.User) bool {
	return IsTrialActive(u, e.now())
}

func (e *Evaluator) IsSubscriptionActive(u *entity.User) bool {
	return IsSubscriptionActive(u, e.now())
}

func (e *Evaluator) CanAccessPremiumFeatures(u *entity.User) bool {
	return CanAccessPremiumFeatures(u, e.now())
}

func (e *Evaluator) GetAccessStatus(u *entity.User) Status {
	return GetAccessStatus(u, e.now())
}

func (e *Evaluator) EffectiveStatus(u *entity.User) entity.SubscriptionStatus {
	return EffectiveStatus(u, e.now())
}
