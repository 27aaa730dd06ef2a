package models

import "time"

// Challenge is one entry of the static challenge catalog.
type Challenge struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Status     string `json:"status"`
	Teacher    string `json:"teacher"`
	Date       string `json:"date"`
	TimeSpan   string `json:"time_span"`
}

// ApplicantForm holds the fields a student submits when applying.
type ApplicantForm struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Contact  string `json:"contact"`
	Year     string `json:"year"`
}

// Ticket is the immutable proof of a challenge application. It lives only as
// long as the context that issued it.
type Ticket struct {
	ID        string        `json:"id"`
	Applicant ApplicantForm `json:"applicant"`
	Challenge Challenge     `json:"challenge"`
	IssuedAt  time.Time     `json:"issued_at"`
}
