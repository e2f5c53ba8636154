package dbmodels

import "shift-tools-backend/models"

type VacancyUser struct {
	BaseModel
	VacancyID string                  `gorm:"type:varchar(36);uniqueIndex:idx_vacancy_user"`
	UserID    int64                   `gorm:"uniqueIndex:idx_vacancy_user"`
	User      *User                   `gorm:"foreignKey:UserID"`
	Status    models.ChatMemberStatus `gorm:"type:varchar(20);index"`
	Calls     []VacancyUserCall       `gorm:"foreignKey:VacancyUserID;constraint:OnDelete:CASCADE"`
}

type VacancyUserCall struct {
	BaseModel
	VacancyUserID string            `gorm:"type:varchar(36);uniqueIndex:idx_vacancy_user_call"`
	VacancyUser   *VacancyUser      `gorm:"foreignKey:VacancyUserID"`
	CallType      models.CallType   `gorm:"type:varchar(20);uniqueIndex:idx_vacancy_user_call"`
	Status        models.CallStatus `gorm:"type:varchar(20)"`
}

type VacancyStatusHistory struct {
	BaseModel
	VacancyID string               `gorm:"type:varchar(36);index"`
	ChangedBy *int64
	Status    models.VacancyStatus `gorm:"type:varchar(20)"`
	Comment   string
}
