package warranty

import (
	"errors"
	"fmt"
	"time"
)

// Lead-day bounds for warranty reminders
const (
	DefaultLeadDays = 7
	MinLeadDays     = 1
	MaxLeadDays     = 90
)

// ErrLeadDaysRange is returned when a lead-day preference is outside 1-90
var ErrLeadDaysRange = errors.New("warranty: lead days out of range")

// Action says what the caller should do with a reminder decision
type Action string

const (
	ActionCreate Action = "create"
	ActionReuse  Action = "reuse"
	ActionSkip   Action = "skip"
)

// SkipInPast is the reason attached to decisions that skip because the
// computed reminder date has already passed
const SkipInPast = "in-past"

// ReminderInput carries the product fields the scheduling decision needs
type ReminderInput struct {
	Username        string
	ProductID       uint
	ProductName     string
	WarrantyEndDate time.Time
	LeadDays        int // 0 means use DefaultLeadDays
}

// ExistingReminder is the subset of a stored reminder relevant to dedup
type ExistingReminder struct {
	ID           uint
	ReminderDate time.Time
}

// Decision is the outcome of DecideReminder. Exactly one of the three
// actions applies: Create carries ReminderDate and Message, Reuse carries
// ExistingID, Skip carries Reason.
type Decision struct {
	Action       Action
	ReminderDate time.Time
	LeadDays     int
	Message      string
	ExistingID   uint
	Reason       string
}

// DecideReminder decides whether a reminder should be created for a product,
// reused from an existing record, or skipped. The caller supplies the
// reminders already stored for this product and is responsible for persisting
// a Create result; re-running the decision after persisting yields Reuse, so
// at most one reminder exists per product per calendar day.
func DecideReminder(in ReminderInput, existing []ExistingReminder, now time.Time) (Decision, error) {
	if in.WarrantyEndDate.IsZero() || now.IsZero() {
		return Decision{}, ErrZeroDate
	}

	lead := in.LeadDays
	if lead == 0 {
		lead = DefaultLeadDays
	}
	if lead < MinLeadDays || lead > MaxLeadDays {
		return Decision{}, ErrLeadDaysRange
	}

	reminderDate := StartOfDay(in.WarrantyEndDate).AddDate(0, 0, -lead)
	today := StartOfDay(now)

	// Never schedule retroactive reminders
	if reminderDate.Before(today) {
		return Decision{Action: ActionSkip, ReminderDate: reminderDate, LeadDays: lead, Reason: SkipInPast}, nil
	}

	for _, e := range existing {
		if SameCalendarDay(e.ReminderDate, reminderDate) {
			return Decision{Action: ActionReuse, ReminderDate: reminderDate, LeadDays: lead, ExistingID: e.ID}, nil
		}
	}

	return Decision{
		Action:       ActionCreate,
		ReminderDate: reminderDate,
		LeadDays:     lead,
		Message:      ReminderMessage(in.ProductName, lead),
	}, nil
}

// ReminderMessage renders the reminder text stored with a new reminder.
// The wording is frozen at creation time, so old reminders keep the lead-day
// value that was in effect when they were scheduled.
func ReminderMessage(productName string, leadDays int) string {
	return fmt.Sprintf("您的產品 \"%s\" 的保固將在 %d 天後到期。", productName, leadDays)
}

// ExpiredMessage renders the notice text for a warranty that has already
// run out
func ExpiredMessage(productName string) string {
	return fmt.Sprintf("您的產品 \"%s\" 的保固已到期。", productName)
}
