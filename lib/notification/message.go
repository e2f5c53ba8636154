package notification

import (
	tgapimodels "shift-tools-backend/models/api/telegram"
)

type Method string

const (
	MethodText    Method = "text"
	MethodPhoto   Method = "photo"
	MethodInvoice Method = "invoice"
)

// Message сообщение, которое умеет отправлять шлюз: Text, Photo или Invoice
type Message interface {
	Method() Method
}

type Text struct {
	Text           string
	Markup         *tgapimodels.InlineKeyboardMarkup
	DisablePreview bool
}

func (Text) Method() Method { return MethodText }

type Photo struct {
	URL     string
	Caption string
	Markup  *tgapimodels.InlineKeyboardMarkup
}

func (Photo) Method() Method { return MethodPhoto }

// Invoice счет Telegram Payments. Amount в минимальных единицах валюты
type Invoice struct {
	Title       string
	Description string
	Payload     string
	Label       string
	Amount      int64
	Currency    string
}

func (Invoice) Method() Method { return MethodInvoice }

// Sent отправленное или отредактированное сообщение
type Sent struct {
	ChatID    int64
	MessageID int64
}

// ChatKind куда ушло сообщение вакансии, определяет таблицу учета
type ChatKind string

const (
	ChatKindChannel ChatKind = "channel"
	ChatKindGroup   ChatKind = "group"
)

type options struct {
	vacancyID string
	chatKind  ChatKind
}

type Option func(*options)

// WithVacancy сохраняет отправленное сообщение как сообщение вакансии в канале или группе
func WithVacancy(vacancyID string, kind ChatKind) Option {
	return func(o *options) {
		o.vacancyID = vacancyID
		o.chatKind = kind
	}
}
