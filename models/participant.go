package models

import "time"

// Player is a club member. Names are unique and a player never changes once created.
type Player struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Session is one day of play for one sport.
type Session struct {
	ID        int       `json:"id" db:"id"`
	Date      string    `json:"date" db:"session_date"` // YYYY-MM-DD
	Sport     string    `json:"sport" db:"sport"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionDateLayout is the canonical layout of Session.Date.
const SessionDateLayout = "2006-01-02"
