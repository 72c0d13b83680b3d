package warranty

import (
	"strings"
	"testing"
	"time"
)

func reminderInput(end time.Time, lead int) ReminderInput {
	return ReminderInput{
		Username:        "alice",
		ProductID:       42,
		ProductName:     "Galaxy S24",
		WarrantyEndDate: end,
		LeadDays:        lead,
	}
}

func TestCreateThenReuse(t *testing.T) {
	now := date(2024, 5, 1)
	in := reminderInput(date(2024, 6, 1), 30)

	first, err := DecideReminder(in, nil, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if first.Action != ActionCreate {
		t.Fatalf("Action = %q, want %q", first.Action, ActionCreate)
	}
	if !first.ReminderDate.Equal(date(2024, 5, 2)) {
		t.Errorf("ReminderDate = %v, want 2024-05-02", first.ReminderDate)
	}

	// Persisting the result and re-running must not create a duplicate
	existing := []ExistingReminder{{ID: 7, ReminderDate: first.ReminderDate}}
	second, err := DecideReminder(in, existing, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if second.Action != ActionReuse {
		t.Errorf("Action = %q, want %q", second.Action, ActionReuse)
	}
	if second.ExistingID != 7 {
		t.Errorf("ExistingID = %d, want 7", second.ExistingID)
	}
}

func TestSkipWhenReminderDateInPast(t *testing.T) {
	// End date 3 days out with a 7-day lead puts the reminder 4 days ago
	now := date(2024, 5, 10)
	in := reminderInput(date(2024, 5, 13), 7)

	decision, err := DecideReminder(in, nil, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if decision.Action != ActionSkip {
		t.Errorf("Action = %q, want %q", decision.Action, ActionSkip)
	}
	if decision.Reason != SkipInPast {
		t.Errorf("Reason = %q, want %q", decision.Reason, SkipInPast)
	}

	// Skip wins regardless of what already exists
	existing := []ExistingReminder{{ID: 1, ReminderDate: date(2024, 5, 6)}}
	decision, err = DecideReminder(in, existing, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if decision.Action != ActionSkip {
		t.Errorf("Action with existing = %q, want %q", decision.Action, ActionSkip)
	}
}

func TestReminderDateTodayStillCreates(t *testing.T) {
	now := date(2024, 5, 2)
	in := reminderInput(date(2024, 5, 9), 7)

	decision, err := DecideReminder(in, nil, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if decision.Action != ActionCreate {
		t.Errorf("Action = %q, want %q", decision.Action, ActionCreate)
	}
	if !decision.ReminderDate.Equal(now) {
		t.Errorf("ReminderDate = %v, want %v", decision.ReminderDate, now)
	}
}

func TestZeroLeadDaysUsesDefault(t *testing.T) {
	now := date(2024, 1, 1)
	in := reminderInput(date(2024, 6, 1), 0)

	decision, err := DecideReminder(in, nil, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if decision.LeadDays != DefaultLeadDays {
		t.Errorf("LeadDays = %d, want %d", decision.LeadDays, DefaultLeadDays)
	}
	want := date(2024, 6, 1).AddDate(0, 0, -DefaultLeadDays)
	if !decision.ReminderDate.Equal(want) {
		t.Errorf("ReminderDate = %v, want %v", decision.ReminderDate, want)
	}
}

func TestLeadDaysOutOfRange(t *testing.T) {
	now := date(2024, 1, 1)

	if _, err := DecideReminder(reminderInput(date(2024, 6, 1), 91), nil, now); err != ErrLeadDaysRange {
		t.Errorf("lead 91: err = %v, want ErrLeadDaysRange", err)
	}
	if _, err := DecideReminder(reminderInput(date(2024, 6, 1), -1), nil, now); err != ErrLeadDaysRange {
		t.Errorf("lead -1: err = %v, want ErrLeadDaysRange", err)
	}
}

func TestZeroDatesRejected(t *testing.T) {
	if _, err := DecideReminder(reminderInput(time.Time{}, 7), nil, date(2024, 1, 1)); err != ErrZeroDate {
		t.Errorf("zero end date: err = %v, want ErrZeroDate", err)
	}
	if _, err := DecideReminder(reminderInput(date(2024, 6, 1), 7), nil, time.Time{}); err != ErrZeroDate {
		t.Errorf("zero now: err = %v, want ErrZeroDate", err)
	}
}

func TestMessageCarriesNameAndLeadDays(t *testing.T) {
	now := date(2024, 5, 1)
	decision, err := DecideReminder(reminderInput(date(2024, 6, 1), 14), nil, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}

	want := `您的產品 "Galaxy S24" 的保固將在 14 天後到期。`
	if decision.Message != want {
		t.Errorf("Message = %q, want %q", decision.Message, want)
	}
	if !strings.Contains(ExpiredMessage("Galaxy S24"), "Galaxy S24") {
		t.Error("ExpiredMessage should contain the product name")
	}
}

func TestIntradayExistingReminderStillMatches(t *testing.T) {
	now := date(2024, 5, 1)
	in := reminderInput(date(2024, 6, 1), 30)

	// Stored timestamps may carry a time of day; dedup is per calendar day
	existing := []ExistingReminder{{ID: 3, ReminderDate: time.Date(2024, 5, 2, 15, 4, 5, 0, time.UTC)}}
	decision, err := DecideReminder(in, existing, now)
	if err != nil {
		t.Fatalf("DecideReminder returned error: %v", err)
	}
	if decision.Action != ActionReuse {
		t.Errorf("Action = %q, want %q", decision.Action, ActionReuse)
	}
}
