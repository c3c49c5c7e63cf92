package domain

// RegistrationStatus classifies the outcome of a registration.
type RegistrationStatus string

const (
	// StatusRegistered means the identity is usable immediately.
	StatusRegistered RegistrationStatus = "REGISTERED"
	// StatusConfirmationRequired means a confirmation mail must be acted on
	// before sign-in.
	StatusConfirmationRequired RegistrationStatus = "CONFIRMATION_REQUIRED"
	// StatusUnknown means the backend accepted the request without
	// returning a user.
	StatusUnknown RegistrationStatus = "UNKNOWN"
)

// ClassifyRegistration maps the identity returned by the backend to exactly
// one status.
func ClassifyRegistration(id *Identity) RegistrationStatus {
	switch {
	case id == nil || id.ID == "":
		return StatusUnknown
	case id.Confirmed():
		return StatusRegistered
	default:
		return StatusConfirmationRequired
	}
}

// DeliveryState reports what happened to the post-registration delivery.
type DeliveryState string

const (
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryFailed    DeliveryState = "failed"
	DeliverySkipped   DeliveryState = "skipped"
)
