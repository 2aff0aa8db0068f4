package entity

import "time"

// Profile is the local user profile keyed by the identity-provider user id.
type Profile struct {
	ID               string    `json:"id"`
	FullName         *string   `json:"full_name,omitempty"`
	StripeCustomerID *string   `json:"stripe_customer_id,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasBillingAccount reports whether a Stripe customer is attached.
func (p *Profile) HasBillingAccount() bool {
	return p != nil && p.StripeCustomerID != nil && *p.StripeCustomerID != ""
}

// BillingCustomerID returns the attached Stripe customer id or "".
func (p *Profile) BillingCustomerID() string {
	if !p.HasBillingAccount() {
		return ""
	}
	return *p.StripeCustomerID
}
