package core

// Internal status vocabularies. Provider-specific translations live in the
// provider packages; these types are the only vocabulary the rest of the
// platform sees.

// RequirementsSeverity orders compliance pressure on a merchant account.
type RequirementsSeverity string

const (
	RequirementsNone         RequirementsSeverity = "none"
	RequirementsCurrentlyDue RequirementsSeverity = "currently_due"
	RequirementsPastDue      RequirementsSeverity = "past_due"
)

// CapabilityStatus is the platform view of a provider capability.
type CapabilityStatus string

const (
	CapabilityActive   CapabilityStatus = "active"
	CapabilityPending  CapabilityStatus = "pending"
	CapabilityInactive CapabilityStatus = "inactive"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// StatusChange is the order/payment transition a terminal provider payment
// state maps to. Non-terminal provider states map to no change (nil).
type StatusChange struct {
	Order   OrderStatus
	Payment PaymentStatus
}
