package model

import "time"

// City is a visited-city log entry. Each record belongs to exactly one user;
// the ownership reference is validated at creation time.
type City struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Name    string `json:"cityName"`
	Country string `json:"country"`
	Slug    string `json:"slug"`
	Emoji   string `json:"emoji"` // country flag glyph

	Date  time.Time `json:"date"` // visit date
	Notes string    `json:"notes"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	CreatedAt time.Time `json:"created_at"`
}
