package models

import "time"

// UserModel is a platform account (creator or learner).
type UserModel struct {
	Base
	Name          string     `json:"name"            gorm:"not null;index"`
	Email         string     `json:"email"           gorm:"uniqueIndex;not null"`
	Password      string     `json:"-"               gorm:"not null"`
	Avatar        string     `json:"avatar"`
	Bio           string     `json:"bio"             gorm:"type:text"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "profiles" }
