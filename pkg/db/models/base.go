package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// BeforeCreate hooks keep ids application-generated so the same models
// work on Postgres and SQLite.

func (r *Role) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

func (f *Franchise) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

func (a *UserFranchiseRole) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
