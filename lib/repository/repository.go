package repository

import (
	paymentstore "shift-tools-backend/lib/payment/store"
	channelstore "shift-tools-backend/lib/telegram/channel-store"
	groupstore "shift-tools-backend/lib/telegram/group-store"
	messagestore "shift-tools-backend/lib/telegram/message-store"
	useringroupstore "shift-tools-backend/lib/telegram/user-in-group-store"
	feedbackstore "shift-tools-backend/lib/user/feedback-store"
	userstore "shift-tools-backend/lib/user/store"
	callstore "shift-tools-backend/lib/vacancy/call-store"
	historystore "shift-tools-backend/lib/vacancy/history-store"
	vacancymemberstore "shift-tools-backend/lib/vacancy/member-store"
	vacancystore "shift-tools-backend/lib/vacancy/store"

	"gorm.io/gorm"
)

// Provider набор хранилищ, привязанных к одному соединению или транзакции
type Provider interface {
	Vacancies() vacancystore.Provider
	Members() vacancymemberstore.Provider
	Calls() callstore.Provider
	History() historystore.Provider
	Groups() groupstore.Provider
	Channels() channelstore.Provider
	Messages() messagestore.Provider
	UsersInGroups() useringroupstore.Provider
	Users() userstore.Provider
	Feedback() feedbackstore.Provider
	Payments() paymentstore.Provider
	// Transaction выполняет fn в транзакции; хранилища из tx видят только ее
	Transaction(fn func(tx Provider) error) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db:            DB,
		vacancies:     vacancystore.NewInstance(DB),
		members:       vacancymemberstore.NewInstance(DB),
		calls:         callstore.NewInstance(DB),
		history:       historystore.NewInstance(DB),
		groups:        groupstore.NewInstance(DB),
		channels:      channelstore.NewInstance(DB),
		messages:      messagestore.NewInstance(DB),
		usersInGroups: useringroupstore.NewInstance(DB),
		users:         userstore.NewInstance(DB),
		feedback:      feedbackstore.NewInstance(DB),
		payments:      paymentstore.NewInstance(DB),
	}
}

type impl struct {
	db            *gorm.DB
	vacancies     vacancystore.Provider
	members       vacancymemberstore.Provider
	calls         callstore.Provider
	history       historystore.Provider
	groups        groupstore.Provider
	channels      channelstore.Provider
	messages      messagestore.Provider
	usersInGroups useringroupstore.Provider
	users         userstore.Provider
	feedback      feedbackstore.Provider
	payments      paymentstore.Provider
}

func (i impl) Vacancies() vacancystore.Provider { return i.vacancies }
func (i impl) Members() vacancymemberstore.Provider { return i.members }
func (i impl) Calls() callstore.Provider { return i.calls }
func (i impl) History() historystore.Provider { return i.history }
func (i impl) Groups() groupstore.Provider { return i.groups }
func (i impl) Channels() channelstore.Provider { return i.channels }
func (i impl) Messages() messagestore.Provider { return i.messages }
func (i impl) UsersInGroups() useringroupstore.Provider { return i.usersInGroups }
func (i impl) Users() userstore.Provider { return i.users }
func (i impl) Feedback() feedbackstore.Provider { return i.feedback }
func (i impl) Payments() paymentstore.Provider { return i.payments }

func (i impl) Transaction(fn func(tx Provider) error) error {
	return i.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewInstance(tx))
	})
}
