package entity

// BillingEvent is a verified Stripe webhook event narrowed to the kinds the
// reconciler understands. The set is closed: every implementation lives in
// this file, and consumers switch over it with a default arm for
// UnhandledEvent.
//
// Ids carried by an event are hints taken from the payload; canonical state is
// always re-fetched from Stripe.
type BillingEvent interface {
	EventID() string
	EventType() string
	isBillingEvent()
}

// EventMeta is common to all billing events.
type EventMeta struct {
	ID   string
	Type string
}

func (m EventMeta) EventID() string   { return m.ID }
func (m EventMeta) EventType() string { return m.Type }

// InvoicePaymentSucceeded is invoice.payment_succeeded. SubscriptionID is
// empty for one-off invoices.
type InvoicePaymentSucceeded struct {
	EventMeta
	InvoiceID      string
	SubscriptionID string
	CustomerID     string
}

// SubscriptionUpdated is customer.subscription.updated.
type SubscriptionUpdated struct {
	EventMeta
	SubscriptionID string
	CustomerID     string
}

// SubscriptionDeleted is customer.subscription.deleted.
type SubscriptionDeleted struct {
	EventMeta
	SubscriptionID string
	CustomerID     string
}

// CheckoutSessionCompleted is checkout.session.completed.
type CheckoutSessionCompleted struct {
	EventMeta
	SessionID      string
	Mode           string
	SubscriptionID string
	CustomerID     string
}

// IsSubscription reports whether the session created a subscription.
func (e CheckoutSessionCompleted) IsSubscription() bool {
	return e.Mode == "subscription" && e.SubscriptionID != ""
}

// UnhandledEvent is any verified event type the reconciler does not act on.
type UnhandledEvent struct {
	EventMeta
}

func (InvoicePaymentSucceeded) isBillingEvent()  {}
func (SubscriptionUpdated) isBillingEvent()      {}
func (SubscriptionDeleted) isBillingEvent()      {}
func (CheckoutSessionCompleted) isBillingEvent() {}
func (UnhandledEvent) isBillingEvent()           {}
