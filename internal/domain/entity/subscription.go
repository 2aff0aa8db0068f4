package entity

import "time"

// SubscriptionStatus mirrors the Stripe subscription status. Values are owned
// by Stripe and copied verbatim; transitions are never computed locally.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// EntitledStatuses are the statuses that grant access to gated resources.
var EntitledStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusTrialing,
}

// AllSubscriptionStatuses lists every status Stripe can report.
var AllSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusTrialing,
	SubscriptionStatusActive,
	SubscriptionStatusCanceled,
	SubscriptionStatusIncomplete,
	SubscriptionStatusIncompleteExpired,
	SubscriptionStatusPastDue,
	SubscriptionStatusUnpaid,
	SubscriptionStatusPaused,
}

// GrantsAccess reports whether the status entitles the owner to gated content.
func (s SubscriptionStatus) GrantsAccess() bool {
	for _, entitled := range EntitledStatuses {
		if s == entitled {
			return true
		}
	}
	return false
}

// Subscription is the local mirror of a Stripe subscription.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	Status             SubscriptionStatus `json:"status"`
	PriceID            string             `json:"price_id"`
	Quantity           int64              `json:"quantity"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	Created            time.Time          `json:"created"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	EndedAt            *time.Time         `json:"ended_at,omitempty"`
	CancelAt           *time.Time         `json:"cancel_at,omitempty"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	TrialStart         *time.Time         `json:"trial_start,omitempty"`
	TrialEnd           *time.Time         `json:"trial_end,omitempty"`
	Metadata           map[string]string  `json:"metadata,omitempty"`
}

// ProviderSubscription is the canonical subscription as returned by Stripe.
// Timestamps are seconds since the epoch; zero means absent.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	Quantity           int64
	CancelAtPeriodEnd  bool
	Created            int64
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	EndedAt            int64
	CancelAt           int64
	CanceledAt         int64
	TrialStart         int64
	TrialEnd           int64
	Metadata           map[string]string
}

// ToSubscription maps the provider record onto the local mirror owned by userID.
func (p *ProviderSubscription) ToSubscription(userID string) *Subscription {
	metadata := make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		metadata[k] = v
	}

	return &Subscription{
		ID:                 p.ID,
		UserID:             userID,
		Status:             SubscriptionStatus(p.Status),
		PriceID:            p.PriceID,
		Quantity:           p.Quantity,
		CancelAtPeriodEnd:  p.CancelAtPeriodEnd,
		Created:            epoch(p.Created),
		CurrentPeriodStart: epoch(p.CurrentPeriodStart),
		CurrentPeriodEnd:   epoch(p.CurrentPeriodEnd),
		EndedAt:            optionalEpoch(p.EndedAt),
		CancelAt:           optionalEpoch(p.CancelAt),
		CanceledAt:         optionalEpoch(p.CanceledAt),
		TrialStart:         optionalEpoch(p.TrialStart),
		TrialEnd:           optionalEpoch(p.TrialEnd),
		Metadata:           metadata,
	}
}

func epoch(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}

func optionalEpoch(seconds int64) *time.Time {
	if seconds == 0 {
		return nil
	}
	t := epoch(seconds)
	return &t
}
