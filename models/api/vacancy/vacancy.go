package vacancyapimodels

import (
	"shift-tools-backend/models"
	apimodels "shift-tools-backend/models/api"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type VacancyData struct {
	Gender        models.Gender        `json:"gender"`         // пол кандидатов M/F/X
	PeopleCount   int                  `json:"people_count"`   // кол-во людей
	HasPassport   bool                 `json:"has_passport"`   // нужен паспорт
	Address       string               `json:"address"`        // адрес
	MapLink       string               `json:"map_link"`       // ссылка на карту
	DateChoice    models.DateChoice    `json:"date_choice"`    // сегодня/завтра
	Date          string               `json:"date"`           // дата в формате 2006-01-02, если не указан date_choice
	StartTime     string               `json:"start_time"`     // начало смены ЧЧ:ММ
	EndTime       string               `json:"end_time"`       // окончание смены ЧЧ:ММ
	PaymentAmount float64              `json:"payment_amount"` // оплата
	PaymentUnit   models.PaymentUnit   `json:"payment_unit"`   // за час/смену
	PaymentMethod models.PaymentMethod `json:"payment_method"` // наличные/карта
	Skills        string               `json:"skills"`         // требования
}

func (v VacancyData) Validate(maxPeopleCount int) error {
	if !v.Gender.IsValid() {
		return errors.New("некорректно указан пол")
	}
	if v.PeopleCount < 1 || v.PeopleCount > maxPeopleCount {
		return errors.Errorf("количество людей должно быть от 1 до %v", maxPeopleCount)
	}
	if strings.TrimSpace(v.Address) == "" {
		return errors.New("не указан адрес")
	}
	if v.DateChoice == "" && v.Date == "" {
		return errors.New("не указана дата")
	}
	if v.DateChoice != "" && v.DateChoice != models.DateChoiceNow && v.DateChoice != models.DateChoiceTomorrow {
		return errors.New("некорректно указана дата")
	}
	if v.Date != "" {
		if _, err := time.Parse(DateLayout, v.Date); err != nil {
			return errors.New("некорректный формат даты")
		}
	}
	if _, err := time.Parse(ClockLayout, v.StartTime); err != nil {
		return errors.New("некорректное время начала")
	}
	if _, err := time.Parse(ClockLayout, v.EndTime); err != nil {
		return errors.New("некорректное время окончания")
	}
	if v.StartTime == v.EndTime {
		return errors.New("время начала совпадает со временем окончания")
	}
	if v.PaymentAmount <= 0 {
		return errors.New("не указана оплата")
	}
	if v.PaymentUnit != models.PaymentUnitHour && v.PaymentUnit != models.PaymentUnitShift {
		return errors.New("некорректно указана единица оплаты")
	}
	if v.PaymentMethod != models.PaymentMethodCash && v.PaymentMethod != models.PaymentMethodCard {
		return errors.New("некорректно указан способ оплаты")
	}
	return nil
}

// ResolveDate дата смены с учетом выбора сегодня/завтра
func (v VacancyData) ResolveDate(now time.Time) time.Time {
	switch v.DateChoice {
	case models.DateChoiceNow:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case models.DateChoiceTomorrow:
		tomorrow := now.AddDate(0, 0, 1)
		return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	}
	date, _ := time.Parse(DateLayout, v.Date)
	return date
}

type VacancyView struct {
	VacancyData
	ID           string               `json:"id"`
	OwnerID      int64                `json:"owner_id"`
	OwnerName    string               `json:"owner_name"`
	Status       models.VacancyStatus `json:"status"`
	StatusName   string               `json:"status_name"`
	MembersCount int64                `json:"members_count"`
	GroupID      *int64               `json:"group_id"`
	ChannelID    *int64               `json:"channel_id"`
	IsPaid       bool                 `json:"is_paid"`
	CreatedAt    time.Time            `json:"created_at"`
}

type VacancyFilter struct {
	apimodels.Pagination
	Statuses []models.VacancyStatus `json:"statuses"` // фильтр по статусам
	OwnerID  int64                  `json:"owner_id"` // фильтр по заказчику
	Date     string                 `json:"date"`     // дата смены 2006-01-02
}

type StatusChangeRequest struct {
	Status  models.VacancyStatus `json:"status"`  // новый статус
	Comment string               `json:"comment"` // комментарий модератора
}

func (r StatusChangeRequest) Validate() error {
	if !r.Status.IsValid() {
		return errors.New("некорректный статус")
	}
	return nil
}

type FeedbackData struct {
	Text string `json:"text"`
}

func (r FeedbackData) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("пустой отзыв")
	}
	return nil
}

type HistoryItem struct {
	Status    models.VacancyStatus `json:"status"`
	ChangedBy *int64               `json:"changed_by"`
	Comment   string               `json:"comment"`
	CreatedAt time.Time            `json:"created_at"`
}
