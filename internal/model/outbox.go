package model

import "time"

const (
	EventAccountRegistered = "account.registered"
	EventAccountDeleted    = "account.deleted"
)

const (
	OutboxPending = 0
	OutboxSent    = 1
	OutboxFailed  = 2
)

// AccountOutbox 账号事件表，和账号写入同一事务
type AccountOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:32;not null"`
	AccountID uint64 `gorm:"not null;index"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AccountOutbox) TableName() string { return "account_outbox" }

// AccountEvent outbox payload，也是 kafka 消息体
type AccountEvent struct {
	Event     string    `json:"event"`
	AccountID uint64    `json:"account_id"`
	EventTime time.Time `json:"event_time"`
}
