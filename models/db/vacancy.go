package dbmodels

import (
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	"time"

	"github.com/pkg/errors"
)

type Vacancy struct {
	BaseModel
	OwnerID       int64                `gorm:"index"`
	Owner         *User                `gorm:"foreignKey:OwnerID"`
	Gender        models.Gender        `gorm:"type:varchar(1)"`
	PeopleCount   int                  `gorm:"not null"`
	HasPassport   bool                 `gorm:"not null;default:false"`
	Address       string               `gorm:"type:varchar(255)"`
	MapLink       string               `gorm:"type:varchar(512)"`
	Date          time.Time            `gorm:"type:date;index"`
	StartTime     string               `gorm:"type:varchar(5)"`
	EndTime       string               `gorm:"type:varchar(5)"`
	PaymentAmount float64              `gorm:"not null;default:0"`
	PaymentUnit   models.PaymentUnit   `gorm:"type:varchar(10)"`
	PaymentMethod models.PaymentMethod `gorm:"type:varchar(10)"`
	Skills        string
	DateChoice    models.DateChoice    `gorm:"type:varchar(10)"`
	Status        models.VacancyStatus `gorm:"type:varchar(20);index"`
	GroupID       *int64               `gorm:"index"`
	Group         *Group
	ChannelID     *int64
	Channel       *Channel
	Workflow      WorkflowState `gorm:"embedded;embeddedPrefix:wf_"`
	Extra         ExtData       `gorm:"type:jsonb"`
	Members       []VacancyUser `gorm:"foreignKey:VacancyID;constraint:OnDelete:CASCADE"`
}

const clockLayout = "15:04"

// StartAt начало смены в часовом поясе loc
func (v Vacancy) StartAt(loc *time.Location) (time.Time, error) {
	return v.atClock(v.StartTime, loc)
}

// EndAt окончание смены; если время окончания меньше времени начала, смена заканчивается на следующий день
func (v Vacancy) EndAt(loc *time.Location) (time.Time, error) {
	start, err := v.StartAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	end, err := v.atClock(v.EndTime, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}

func (v Vacancy) atClock(clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "некорректное время %q", clock)
	}
	return time.Date(v.Date.Year(), v.Date.Month(), v.Date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func (v Vacancy) HasGroup() bool {
	return v.GroupID != nil && *v.GroupID != 0
}

func (v Vacancy) ToModel(membersCount int64) vacancyapimodels.VacancyView {
	view := vacancyapimodels.VacancyView{
		VacancyData: vacancyapimodels.VacancyData{
			Gender:        v.Gender,
			PeopleCount:   v.PeopleCount,
			HasPassport:   v.HasPassport,
			Address:       v.Address,
			MapLink:       v.MapLink,
			DateChoice:    v.DateChoice,
			Date:          v.Date.Format(vacancyapimodels.DateLayout),
			StartTime:     v.StartTime,
			EndTime:       v.EndTime,
			PaymentAmount: v.PaymentAmount,
			PaymentUnit:   v.PaymentUnit,
			PaymentMethod: v.PaymentMethod,
			Skills:        v.Skills,
		},
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Status:       v.Status,
		StatusName:   v.Status.ToHuman(),
		MembersCount: membersCount,
		GroupID:      v.GroupID,
		ChannelID:    v.ChannelID,
		IsPaid:       v.Workflow.IsPaid,
		CreatedAt:    v.CreatedAt,
	}
	if v.Owner != nil {
		view.OwnerName = v.Owner.DisplayName()
	}
	return view
}
