// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// The `gorm:"..."` struct tags are read by the ORM when it creates tables
// (AutoMigrate) and builds queries. The `json:"..."` tags control how the
// structs are rendered by the /api endpoints.
package model

import "time"

// User represents a registered account on the platform.
//
// Email is the login identifier and is UNIQUE in the database. The service layer
// normalises it (trimmed, lower case) before it ever reaches the repository, so
// "BSimmons@gmail.ac.uk" and "bsimmons@gmail.ac.uk" are the same account.
//
// WHY DescriptionID *string?
// A description is optional. A nil pointer is stored as NULL, which is different
// from "points at a description with an empty id". There is deliberately no
// association field here: the user only holds a reference, so deleting a
// description never touches the user row.
type User struct {
	ID            string    `json:"id"                      gorm:"primaryKey;size:20"`
	FirstName     string    `json:"firstName"               gorm:"size:100;not null"`
	Surname       string    `json:"surname"                 gorm:"size:100;not null"`
	Email         string    `json:"email"                   gorm:"size:255;uniqueIndex;not null"`
	Password      string    `json:"-"                       gorm:"size:255;not null"` // bcrypt hash, never serialised
	PrivilegeID   uint      `json:"-"                       gorm:"not null;index"`
	Privilege     Privilege `json:"privilege"               gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Suspended     bool      `json:"suspended"               gorm:"not null;default:false"`
	DescriptionID *string   `json:"descriptionId,omitempty" gorm:"size:20;index"`
	University    string    `json:"university"              gorm:"size:255"`
	Degree        string    `json:"degree"                  gorm:"size:255"`
	Telephone     string    `json:"telephone"               gorm:"size:50"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Role returns the user's role, resolved from the loaded privilege row.
// It fails if the privilege was not preloaded or holds an unknown name.
func (u *User) Role() (Role, error) {
	return ParseRole(u.Privilege.Name)
}

// FullName is used by the page templates and notification emails.
func (u *User) FullName() string {
	if u.Surname == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.Surname
}

// Privilege is static reference data: one row per role name.
type Privilege struct {
	ID   uint   `json:"id"   gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;uniqueIndex;not null"`
}

// Description is a free-text profile blurb, referenced by at most one user.
type Description struct {
	ID          string    `json:"id"          gorm:"primaryKey;size:20"`
	Description string    `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
