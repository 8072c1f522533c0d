package model

import "time"

const (
	RoleUser  = 0
	RoleAdmin = 1
)

// Account 账号信息，归关系库所有
type Account struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      int       `gorm:"not null;default:0" json:"role"`
	PhotoURL  *string   `gorm:"size:512" json:"photo_url"`
	CreatedAt time.Time `json:"registered_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// Author 跨库 join 时附加到内容上的作者信息
type Author struct {
	ID       uint64  `json:"account_id"`
	Name     string  `json:"name"`
	PhotoURL *string `json:"photo_url"`
}
