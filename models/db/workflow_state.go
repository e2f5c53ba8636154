package dbmodels

import (
	"database/sql/driver"
	"encoding/json"
	"shift-tools-backend/models"

	"github.com/pkg/errors"
)

// WorkflowState состояние процесса вакансии. Булевы поля - защелки: выставляются один раз и не сбрасываются
type WorkflowState struct {
	SentInGroup    bool                `gorm:"not null;default:false"`
	SentStartCall  bool                `gorm:"not null;default:false"`
	SentFinalCall  bool                `gorm:"not null;default:false"`
	PaymentChecked bool                `gorm:"not null;default:false"`
	IsPaid         bool                `gorm:"not null;default:false"`
	PreCallStart   bool                `gorm:"not null;default:false"`
	StartPreCall   models.StartPreCall `gorm:"type:varchar(10);not null;default:''"`
	Calls          CallSelection       `gorm:"type:jsonb"`
}

type WorkflowFlag string

const (
	FlagSentInGroup    WorkflowFlag = "wf_sent_in_group"
	FlagSentStartCall  WorkflowFlag = "wf_sent_start_call"
	FlagSentFinalCall  WorkflowFlag = "wf_sent_final_call"
	FlagPaymentChecked WorkflowFlag = "wf_payment_checked"
	FlagIsPaid         WorkflowFlag = "wf_is_paid"
	FlagPreCallStart   WorkflowFlag = "wf_pre_call_start"
)

func (f WorkflowFlag) IsValid() bool {
	switch f {
	case FlagSentInGroup, FlagSentStartCall, FlagSentFinalCall, FlagPaymentChecked, FlagIsPaid, FlagPreCallStart:
		return true
	}
	return false
}

func (s WorkflowState) IsSet(flag WorkflowFlag) bool {
	switch flag {
	case FlagSentInGroup:
		return s.SentInGroup
	case FlagSentStartCall:
		return s.SentStartCall
	case FlagSentFinalCall:
		return s.SentFinalCall
	case FlagPaymentChecked:
		return s.PaymentChecked
	case FlagIsPaid:
		return s.IsPaid
	case FlagPreCallStart:
		return s.PreCallStart
	}
	return false
}

func (s *WorkflowState) Set(flag WorkflowFlag) {
	switch flag {
	case FlagSentInGroup:
		s.SentInGroup = true
	case FlagSentStartCall:
		s.SentStartCall = true
	case FlagSentFinalCall:
		s.SentFinalCall = true
	case FlagPaymentChecked:
		s.PaymentChecked = true
	case FlagIsPaid:
		s.IsPaid = true
	case FlagPreCallStart:
		s.PreCallStart = true
	}
}

// CallSelection выбранные заказчиком участники (telegram id) по типу переклички
type CallSelection map[models.CallType][]int64

func (c CallSelection) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	valueString, err := json.Marshal(c)
	return string(valueString), err
}

func (c *CallSelection) Scan(value any) error {
	return scanJSON(value, c)
}

// ExtData произвольные неструктурированные пометки вакансии
type ExtData map[string]any

func (e ExtData) Value() (driver.Value, error) {
	if e == nil {
		return "{}", nil
	}
	valueString, err := json.Marshal(e)
	return string(valueString), err
}

func (e *ExtData) Scan(value any) error {
	return scanJSON(value, e)
}

func scanJSON(value any, dst any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return errors.Errorf("неподдерживаемый тип json поля: %T", value)
}
