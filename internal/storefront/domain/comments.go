package domain

import "time"

type DeliveryStatus string

const (
	DeliveryDelivered   DeliveryStatus = "delivered"
	DeliveryAttempted   DeliveryStatus = "attempted"
	DeliveryRescheduled DeliveryStatus = "rescheduled"
	DeliveryIssue       DeliveryStatus = "issue"
)

type InstallationStatus string

const (
	InstallationScheduled  InstallationStatus = "scheduled"
	InstallationInProgress InstallationStatus = "in_progress"
	InstallationCompleted  InstallationStatus = "completed"
	InstallationOnHold     InstallationStatus = "on_hold"
	InstallationCancelled  InstallationStatus = "cancelled"
)

// DeliveryComment is an append-only driver log entry.
type DeliveryComment struct {
	ID             uint
	OrderID        uint
	DriverID       uint
	DriverName     string
	Comment        string
	DeliveryStatus DeliveryStatus
	Rating         *int
	CreatedAt      time.Time
}

// InstallationComment is an append-only installer log entry.
type InstallationComment struct {
	ID                      uint
	OrderID                 uint
	InstallerID             uint
	InstallerName           string
	Comment                 string
	InstallationStatus      InstallationStatus
	TechnicalNotes          string
	CompletionPercentage    int
	EstimatedCompletionDate *time.Time
	CreatedAt               time.Time
}

// StatusEffect describes the order-status side effect of a comment.
type StatusEffect struct {
	Attempted     bool
	StatusChanged bool
	From          OrderStatus
	To            OrderStatus
	Reason        string
}

// ApplyDeliveryEffect runs the side effect of a delivery status on o.
func ApplyDeliveryEffect(o *Order, status DeliveryStatus) StatusEffect {
	if status != DeliveryDelivered {
		return StatusEffect{From: o.Status, To: o.Status}
	}
	return applyEffect(o, o.MarkDelivered)
}

// ApplyInstallationEffect runs the side effect of an installation status on o.
func ApplyInstallationEffect(o *Order, status InstallationStatus) StatusEffect {
	if status != InstallationCompleted {
		return StatusEffect{From: o.Status, To: o.Status}
	}
	return applyEffect(o, o.MarkReadyForDelivery)
}

func applyEffect(o *Order, transition func() error) StatusEffect {
	eff := StatusEffect{Attempted: true, From: o.Status}
	if err := transition(); err != nil {
		eff.To = o.Status
		eff.Reason = err.Error()
		return eff
	}
	eff.To = o.Status
	eff.StatusChanged = eff.From != eff.To
	return eff
}
