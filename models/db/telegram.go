package dbmodels

import (
	"shift-tools-backend/models"
	"time"
)

// Group супергруппа, которая на время жизни вакансии выдается ей в аренду
type Group struct {
	ID         int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Title      string             `gorm:"type:varchar(255)"`
	InviteLink string             `gorm:"type:varchar(255)"`
	Status     models.GroupStatus `gorm:"type:varchar(20);index;default:'available'"`
}

// Channel канал города, в котором публикуются вакансии
type Channel struct {
	ID                  int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Title               string `gorm:"type:varchar(255)"`
	City                string `gorm:"type:varchar(100);index"`
	InviteLink          string `gorm:"type:varchar(255)"`
	IsActive            bool   `gorm:"not null;default:true"`
	HasBotAdministrator bool   `gorm:"not null;default:false"`
}

type ChannelMessage struct {
	BaseModel
	ChatID    int64
	MessageID int64
	VacancyID *string              `gorm:"type:varchar(36);index"`
	Status    models.MessageStatus `gorm:"type:varchar(20);default:'received'"`
}

type GroupMessage struct {
	BaseModel
	ChatID    int64
	MessageID int64
	VacancyID *string              `gorm:"type:varchar(36);index"`
	Status    models.MessageStatus `gorm:"type:varchar(20);default:'received'"`
}

type UserInGroup struct {
	BaseModel
	GroupID int64                   `gorm:"uniqueIndex:idx_user_in_group"`
	UserID  int64                   `gorm:"uniqueIndex:idx_user_in_group"`
	Status  models.ChatMemberStatus `gorm:"type:varchar(20)"`
}
