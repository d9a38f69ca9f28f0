package subscription

import (
	"fmt"
	"time"
)

// Subscription is the slice of the billing subscription this service touches:
// approving a bank-transfer payment activates the paid period and clears any
// past-due marker. Everything else about subscriptions lives elsewhere.
type Subscription struct {
	ID          string
	BranchID    string
	Status      Status
	PeriodStart time.Time
	PeriodEnd   time.Time
	PastDue     bool
	UpdatedAt   time.Time
}

type Status string

const (
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
)

// Activate moves the subscription into the paid billing window
func (s *Subscription) Activate(periodStart, periodEnd time.Time) error {
	if s.Status == StatusCancelled {
		return fmt.Errorf("subscription %s is cancelled", s.ID)
	}
	if periodEnd.Before(periodStart) {
		return fmt.Errorf("billing period end %s before start %s", periodEnd, periodStart)
	}

	s.Status = StatusActive
	s.PeriodStart = periodStart
	s.PeriodEnd = periodEnd
	s.PastDue = false
	s.UpdatedAt = time.Now()
	return nil
}
