package domain

import (
	"fmt"
	"time"
)

// Profile represents a bot user and their onboarding answers.
type Profile struct {
	TelegramID   int64     `json:"telegram_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	BirthYear    int       `json:"birth_year"`
	BirthMonth   int       `json:"birth_month"`
	BirthDay     int       `json:"birth_day"`
	Location     string    `json:"location"`
	Onboarded    bool      `json:"onboarded"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// BirthDate renders the collected date parts as YYYY-MM-DD, or an empty
// string when the profile is not onboarded yet.
func (p *Profile) BirthDate() string {
	if p == nil || p.BirthYear == 0 {
		return ""
	}

	return fmt.Sprintf("%04d-%02d-%02d", p.BirthYear, p.BirthMonth, p.BirthDay)
}
