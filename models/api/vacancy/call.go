package vacancyapimodels

import (
	"shift-tools-backend/models"
)

type CallMember struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Confirmed bool   `json:"confirmed"` // отмечен в текущей перекличке
}

type CallRoster struct {
	CallType models.CallType `json:"call_type"`
	Members  []CallMember    `json:"members"`
}

type CallConfirmRequest struct {
	UserIDs []int64 `json:"user_ids"` // участники, которые вышли на смену
}

type RosterResult struct {
	Confirmed int `json:"confirmed"`
	Rejected  int `json:"rejected"`
}

type PreCallView struct {
	CanRefind    bool  `json:"can_refind"`    // можно запросить добор людей
	MembersCount int64 `json:"members_count"` // сейчас в группе
	PeopleCount  int   `json:"people_count"`  // нужно по вакансии
}

// MessageDeleteStats итог массового удаления сообщений
type MessageDeleteStats struct {
	Total   int `json:"total"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

func (s *MessageDeleteStats) Add(other MessageDeleteStats) {
	s.Total += other.Total
	s.Deleted += other.Deleted
	s.Failed += other.Failed
}

// AttendanceRow строка отчета о явке
type AttendanceRow struct {
	UserID       int64                   `json:"user_id"`
	FullName     string                  `json:"full_name"`
	Username     string                  `json:"username"`
	Phone        string                  `json:"phone"`
	MemberStatus models.ChatMemberStatus `json:"member_status"`
	BeforeStart  models.CallStatus       `json:"before_start"`
	Start        models.CallStatus       `json:"start"`
	AfterStart   models.CallStatus       `json:"after_start"`
}
