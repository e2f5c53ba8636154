package models

type VacancyStatus string

const (
	VacancyStatusPending  VacancyStatus = "pending"
	VacancyStatusApproved VacancyStatus = "approved"
	VacancyStatusActive   VacancyStatus = "active"
	VacancyStatusClosed   VacancyStatus = "closed"
	VacancyStatusRejected VacancyStatus = "rejected"
)

var vacancyStatusEdges = map[VacancyStatus][]VacancyStatus{
	VacancyStatusPending:  {VacancyStatusApproved, VacancyStatusActive, VacancyStatusRejected},
	VacancyStatusApproved: {VacancyStatusActive, VacancyStatusClosed, VacancyStatusRejected},
	VacancyStatusActive:   {VacancyStatusClosed},
}

// CanMoveTo сообщает, есть ли в графе статусов ребро из текущего статуса в status
func (s VacancyStatus) CanMoveTo(status VacancyStatus) bool {
	for _, next := range vacancyStatusEdges[s] {
		if next == status {
			return true
		}
	}
	return false
}

// IsLive вакансия опубликована и набор/смена еще не завершены
func (s VacancyStatus) IsLive() bool {
	return s == VacancyStatusApproved || s == VacancyStatusActive
}

func (s VacancyStatus) IsValid() bool {
	switch s {
	case VacancyStatusPending, VacancyStatusApproved, VacancyStatusActive, VacancyStatusClosed, VacancyStatusRejected:
		return true
	}
	return false
}

func (s VacancyStatus) ToHuman() string {
	switch s {
	case VacancyStatusPending:
		return "На модерації"
	case VacancyStatusApproved:
		return "Схвалена"
	case VacancyStatusActive:
		return "Активна"
	case VacancyStatusClosed:
		return "Закрита"
	case VacancyStatusRejected:
		return "Відхилена"
	}
	return string(s)
}

var LiveVacancyStatuses = []VacancyStatus{VacancyStatusApproved, VacancyStatusActive}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderAny    Gender = "X"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderAny
}

// Accepts проверяет подходит ли кандидат под фильтр вакансии по полу
func (g Gender) Accepts(candidate Gender) bool {
	return g == GenderAny || g == candidate
}

func (g Gender) ToHuman() string {
	switch g {
	case GenderMale:
		return "Чоловіки"
	case GenderFemale:
		return "Жінки"
	}
	return "Всі"
}

type PaymentUnit string

const (
	PaymentUnitHour  PaymentUnit = "hour"
	PaymentUnitShift PaymentUnit = "shift"
)

func (u PaymentUnit) ToHuman() string {
	if u == PaymentUnitHour {
		return "година"
	}
	return "зміна"
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) ToHuman() string {
	if m == PaymentMethodCard {
		return "на картку"
	}
	return "готівкою"
}

type DateChoice string

const (
	DateChoiceNow      DateChoice = "now"
	DateChoiceTomorrow DateChoice = "tomorrow"
)

type CallType string

const (
	CallTypeBeforeStart CallType = "before_start"
	CallTypeStart       CallType = "start"
	CallTypeAfterStart  CallType = "after_start"
)

func (t CallType) IsValid() bool {
	return t == CallTypeBeforeStart || t == CallTypeStart || t == CallTypeAfterStart
}

type CallStatus string

const (
	CallStatusCreated CallStatus = "created"
	CallStatusSent    CallStatus = "sent"
	CallStatusConfirm CallStatus = "confirm"
	CallStatusReject  CallStatus = "reject"
)

// StartPreCall решение заказчика на старте смены: добирать людей или продолжать
type StartPreCall string

const (
	StartPreCallUnset    StartPreCall = ""
	StartPreCallNeed     StartPreCall = "need"
	StartPreCallContinue StartPreCall = "continue"
)
