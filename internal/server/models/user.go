package models

import "time"

type User struct {
	ID           string
	Email        string
	Salt         string
	PasswordHash string
	CreatedAt    time.Time
}
