// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package mentor implements the mentor directory: onboarding, discovery,
availability and verification.

A mentor profile extends an existing account one-to-one. Onboarding grants
the account the mentor role; verification is an admin decision and gates
whether the profile is bookable at all. TotalSessions and Rating are
denormalized rollups maintained by the stats refresher, never written by
this package directly.
*/
package mentor

import "time"

// # Core Entity

// Mentor is a bookable profile attached to exactly one account.
type Mentor struct {
	UserID          string    `json:"user_id"`
	Expertise       []string  `json:"expertise"`
	Languages       []string  `json:"languages,omitempty"`
	YearsExperience int       `json:"years_experience"`
	HourlyRate      float64   `json:"hourly_rate"`
	Bio             *string   `json:"bio,omitempty"`
	IsVerified      bool      `json:"is_verified"`
	IsAvailable     bool      `json:"is_available"`
	TotalSessions   int       `json:"total_sessions"`
	Rating          *float64  `json:"rating,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Bookable reports whether learners may currently book this profile.
func (m *Mentor) Bookable() bool {
	return m.IsVerified && m.IsAvailable
}

// # Field Identifiers

const (
	FieldExpertise       = "expertise"
	FieldLanguages       = "languages"
	FieldYearsExperience = "years_experience"
	FieldHourlyRate      = "hourly_rate"
	FieldBio             = "bio"
	FieldIsAvailable     = "is_available"
	FieldIsVerified      = "is_verified"
)
