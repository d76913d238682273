package model

import (
	"time"
)

// Role is the access level assigned to a profile
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether the role is one of the allowed values
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// ProfileStatus represents the lifecycle state of a profile
type ProfileStatus string

const (
	StatusActive    ProfileStatus = "active"
	StatusInactive  ProfileStatus = "inactive"
	StatusSuspended ProfileStatus = "suspended"
)

// Valid reports whether the status is one of the allowed values
func (s ProfileStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Profile is the canonical record for an external identity.
// Exactly one exists per identity; it is created by the provisioning
// path, never directly by clients.
type Profile struct {
	ID                 string        `json:"id"`
	Email              string        `json:"email"`
	FullName           *string       `json:"fullName,omitempty"`
	AvatarURL          *string       `json:"avatarUrl,omitempty"`
	Phone              *string       `json:"phone,omitempty"`
	Department         *string       `json:"department,omitempty"`
	JobTitle           *string       `json:"jobTitle,omitempty"`
	Bio                *string       `json:"bio,omitempty"`
	Location           *string       `json:"location,omitempty"`
	Website            *string       `json:"website,omitempty"`
	Role               Role          `json:"role"`
	Status             ProfileStatus `json:"status"`
	EmailNotifications bool          `json:"emailNotifications"`
	LastLogin          *time.Time    `json:"lastLogin,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// IsAdmin reports whether the profile carries the admin role
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsActive reports whether the profile is in the active state
func (p *Profile) IsActive() bool {
	return p.Status == StatusActive
}

// ProfileUpdate carries the self-serviceable display fields. Role and
// status changes travel separately because they require admin privilege.
type ProfileUpdate struct {
	FullName           *string `json:"fullName,omitempty"`
	AvatarURL          *string `json:"avatarUrl,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Department         *string `json:"department,omitempty"`
	JobTitle           *string `json:"jobTitle,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	Location           *string `json:"location,omitempty"`
	Website            *string `json:"website,omitempty"`
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
}
