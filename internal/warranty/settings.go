package warranty

import "time"

// Frequency controls how often repeat notifications fire once a product
// is inside its notice window
type Frequency string

const (
	FrequencyOnce   Frequency = "once"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// NotifyBeforeOptions are the accepted lead times for the notice window
var NotifyBeforeOptions = []int{7, 14, 30, 60, 90}

// ValidNotifyBefore reports whether days is one of the accepted lead times
func ValidNotifyBefore(days int) bool {
	for _, d := range NotifyBeforeOptions {
		if d == days {
			return true
		}
	}
	return false
}

// ValidFrequency reports whether f is a known notification frequency
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// Settings is a user's fully-resolved notification configuration
type Settings struct {
	Enabled           bool      `json:"enabled"`
	UseAccountEmail   bool      `json:"use_account_email"`
	NotificationEmail string    `json:"notification_email"`
	NotifyBefore      int       `json:"notify_before"`
	Frequency         Frequency `json:"frequency"`
	NotifyOnExpiry    bool      `json:"notify_on_expiry"`
	NotifyAfterExpiry bool      `json:"notify_after_expiry"`
}

// SettingsPatch is a partially-specified settings document, as stored or as
// submitted by the user. Nil fields fall back to defaults.
type SettingsPatch struct {
	Enabled           *bool      `json:"enabled,omitempty"`
	UseAccountEmail   *bool      `json:"use_account_email,omitempty"`
	NotificationEmail *string    `json:"notification_email,omitempty"`
	NotifyBefore      *int       `json:"notify_before,omitempty"`
	Frequency         *Frequency `json:"frequency,omitempty"`
	NotifyOnExpiry    *bool      `json:"notify_on_expiry,omitempty"`
	NotifyAfterExpiry *bool      `json:"notify_after_expiry,omitempty"`
}

// DefaultSettings returns the configuration applied when a user has never
// saved notification settings
func DefaultSettings() Settings {
	return Settings{
		Enabled:           true,
		UseAccountEmail:   true,
		NotificationEmail: "",
		NotifyBefore:      30,
		Frequency:         FrequencyOnce,
		NotifyOnExpiry:    true,
		NotifyAfterExpiry: true,
	}
}

// ResolveSettings merges a stored partial settings document with the
// defaults. A nil patch means the user never saved anything and yields
// DefaultSettings exactly. When the account email is in use, any override
// address is cleared; the two are mutually exclusive.
func ResolveSettings(stored *SettingsPatch) Settings {
	s := DefaultSettings()
	if stored == nil {
		return s
	}
	if stored.Enabled != nil {
		s.Enabled = *stored.Enabled
	}
	if stored.UseAccountEmail != nil {
		s.UseAccountEmail = *stored.UseAccountEmail
	}
	if stored.NotificationEmail != nil {
		s.NotificationEmail = *stored.NotificationEmail
	}
	if stored.NotifyBefore != nil {
		s.NotifyBefore = *stored.NotifyBefore
	}
	if stored.Frequency != nil {
		s.Frequency = *stored.Frequency
	}
	if stored.NotifyOnExpiry != nil {
		s.NotifyOnExpiry = *stored.NotifyOnExpiry
	}
	if stored.NotifyAfterExpiry != nil {
		s.NotifyAfterExpiry = *stored.NotifyAfterExpiry
	}
	if s.UseAccountEmail {
		s.NotificationEmail = ""
	}
	return s
}

// ShouldNotify decides whether a notification is currently due for a product
// with the given computed status. lastNotifiedAt is the time a notification
// for this product was last dispatched, or nil if never; the caller records
// a new value after a successful send.
func ShouldNotify(s Settings, status StatusInfo, lastNotifiedAt *time.Time, now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if status.DaysLeft > s.NotifyBefore {
		return false
	}
	if status.DaysLeft == 0 {
		return s.NotifyOnExpiry
	}
	if status.DaysLeft < 0 {
		// Expired items keep re-firing per the frequency policy, they do
		// not collapse to a single notification
		return s.NotifyAfterExpiry && frequencyAllows(s.Frequency, lastNotifiedAt, now)
	}
	return frequencyAllows(s.Frequency, lastNotifiedAt, now)
}

func frequencyAllows(f Frequency, lastNotifiedAt *time.Time, now time.Time) bool {
	if lastNotifiedAt == nil {
		return true
	}
	switch f {
	case FrequencyDaily:
		return !SameCalendarDay(*lastNotifiedAt, now)
	case FrequencyWeekly:
		elapsed := StartOfDay(now).Sub(StartOfDay(*lastNotifiedAt))
		return elapsed >= 7*24*time.Hour
	default:
		// once
		return false
	}
}
