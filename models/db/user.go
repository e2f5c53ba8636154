package dbmodels

import (
	"shift-tools-backend/models"
	"strings"
	"time"
)

// User пользователь Telegram
type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string        `gorm:"type:varchar(255)"`
	FullName  string        `gorm:"type:varchar(255)"`
	Phone     string        `gorm:"type:varchar(20)"`
	Gender    models.Gender `gorm:"type:varchar(1)"`
	City      string        `gorm:"type:varchar(100)"`
	IsStaff   bool          `gorm:"not null;default:false"`
	IsActive  bool          `gorm:"not null;default:true"`
	IsBot     bool          `gorm:"not null;default:false"`
}

func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "користувач"
}

type UserFeedback struct {
	BaseModel
	UserID    int64   `gorm:"index"`
	User      *User   `gorm:"foreignKey:UserID"`
	VacancyID *string `gorm:"type:varchar(36)"`
	Text      string
}
