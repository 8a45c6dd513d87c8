package types

import "time"

// ContactMessage is a row in messages, written by the contact form.
type ContactMessage struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	ContactInfo string    `db:"contact_info"`
	Subject     string    `db:"subject"`
	Message     string    `db:"message"`
	CreatedAt   time.Time `db:"created_at"`
}
