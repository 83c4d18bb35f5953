package models

import "time"

// User - учетная запись родителя. Идентификатор - email.
type User struct {
	Email        string    `json:"email" db:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" db:"password_hash" dynamodbav:"password_hash"`
	Name         string    `json:"name" db:"name" dynamodbav:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" dynamodbav:"created_at"`
}

// AuthResult возвращается при регистрации и входе.
type AuthResult struct {
	User        *User     `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
