package domain

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string   // argon2id PHC, or bcrypt for imported records
	Roles        []string // role names
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
