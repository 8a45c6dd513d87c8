package types

import "time"

// Profile is the row in profiles keyed by the auth user id.
type Profile struct {
	ID                string    `db:"id"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	ProfilePictureURL *string   `db:"profile_picture_url"`
	IsAdmin           bool      `db:"is_admin"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
