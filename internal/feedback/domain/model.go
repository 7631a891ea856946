package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Feedback struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Message   string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;index"`
}

func (Feedback) TableName() string { return "feedback" }

// Row is a Feedback joined with its author's name.
type Row struct {
	Feedback
	UserName string
}
