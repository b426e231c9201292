package domain

import "time"

// User is an account known to the user directory.
type User struct {
	UID          string    `json:"uid" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Identity is the authenticated caller carried in a request context.
type Identity struct {
	UID   string
	Email string
}
