package model

import "time"

// Theme is the UI theme choice stored in preferences
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Valid reports whether the theme is one of the allowed values
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// Preferences holds per-user settings, provisioned alongside the profile.
type Preferences struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	Theme         Theme                  `json:"theme"`
	Language      string                 `json:"language"`
	Timezone      string                 `json:"timezone"`
	Notifications map[string]interface{} `json:"notifications,omitempty"`
	Privacy       map[string]interface{} `json:"privacy,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// DefaultPreferences returns the preferences a freshly provisioned user gets
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:   userID,
		Theme:    ThemeLight,
		Language: "en",
		Timezone: "UTC",
		Notifications: map[string]interface{}{
			"email": true,
			"push":  false,
			"sms":   false,
		},
		Privacy: map[string]interface{}{
			"profile_visible": true,
			"email_visible":   false,
		},
	}
}
