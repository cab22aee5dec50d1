package domain

import "time"

// Well known roles seeded on first start.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type Role struct {
	Name        string
	Description string
	Permissions []string // permission names, stored space-delimited
	CreatedAt   time.Time
}

type Permission struct {
	Name        string
	Description string
	CreatedAt   time.Time
}
