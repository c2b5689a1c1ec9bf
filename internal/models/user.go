package models

import "github.com/google/uuid"

type User struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password,omitempty"`
	Username string    `json:"username"`

	// Cosmetics the client renders for this user.
	CardBackID    int `json:"card_back_id"`
	EnvironmentID int `json:"environment_id"`

	// Ledger counters, incremented on game completion.
	GamesPlayed int `json:"games_played"`
	GamesWon    int `json:"games_won"`
	Currency    int `json:"currency"`
}
