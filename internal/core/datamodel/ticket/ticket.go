package ticket

import "time"

type Ticket struct {
	ID             int64     `gorm:"primaryKey"`
	UserID         int64     `gorm:"column:user_id;not null;index"`
	Topic          string    `gorm:"column:topic;size:255;not null"`
	Description    string    `gorm:"column:description;not null"`
	Priority       string    `gorm:"column:priority;not null"`
	AwaitsResponse bool      `gorm:"column:awaits_response;not null"`
	Response       *string   `gorm:"column:response"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Ticket) TableName() string {
	return "tickets"
}
