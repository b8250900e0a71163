package models

import "time"

// User is the authoritative identity record. PasswordHash never leaves the
// service: the handlers build response payloads from a shape that has no
// field for it.
type User struct {
	ID               string
	Email            string
	PasswordHash     []byte
	FullName         string
	AvatarURL        string
	Bio              string
	NativeLanguage   string
	LearningLanguage string
	Location         string
	IsOnboarded      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfilePatch carries the onboarding fields merged into a User. Only non-nil
// fields are written.
type ProfilePatch struct {
	FullName         *string
	Bio              *string
	NativeLanguage   *string
	LearningLanguage *string
	Location         *string
	IsOnboarded      *bool
}
