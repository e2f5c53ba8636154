package notification

import (
	"context"
	tgclient "shift-tools-backend/lib/telegram/client"
	messagestore "shift-tools-backend/lib/telegram/message-store"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Provider interface {
	Notify(ctx context.Context, chatID int64, msg Message, opts ...Option) (*Sent, error)
	Update(ctx context.Context, chatID, messageID int64, msg Message) (*Sent, error)
	// NotifyStaff рассылка сотрудникам в Telegram и на почту
	NotifyStaff(ctx context.Context, subject string, msg Message) BroadcastResult
}

type Recorder interface {
	NotificationSent(method string, err error)
}

type Config struct {
	ProviderToken string
	Currency      string
	// получатели рассылки помимо сотрудников из БД
	StaffChatIDs []int64
	StaffEmails  []string
}

type sendFunc func(ctx context.Context, client tgclient.Provider, cfg Config, chatID int64, msg Message) (*tgapimodels.Message, error)

type updateFunc func(ctx context.Context, client tgclient.Provider, chatID, messageID int64, msg Message) (*tgapimodels.Message, error)

type methodFuncs struct {
	send   sendFunc
	update updateFunc
}

var methods = map[Method]methodFuncs{
	MethodText:    {send: sendText, update: updateText},
	MethodPhoto:   {send: sendPhoto, update: updatePhoto},
	MethodInvoice: {send: sendInvoice},
}

var Instance Provider

func NewHandler(client tgclient.Provider, messages messagestore.Provider, staff StaffSource, mailer Mailer, recorder Recorder, cfg Config) {
	Instance = NewInstance(client, messages, staff, mailer, recorder, cfg)
}

func NewInstance(client tgclient.Provider, messages messagestore.Provider, staff StaffSource, mailer Mailer, recorder Recorder, cfg Config) Provider {
	return &impl{
		client:   client,
		messages: messages,
		staff:    staff,
		mailer:   mailer,
		recorder: recorder,
		cfg:      cfg,
	}
}

type impl struct {
	client   tgclient.Provider
	messages messagestore.Provider
	staff    StaffSource
	mailer   Mailer
	recorder Recorder
	cfg      Config
}

func (i impl) getLogger(chatID int64, method Method) *log.Entry {
	return log.
		WithField("chat_id", chatID).
		WithField("notify_method", string(method))
}

func (i impl) Notify(ctx context.Context, chatID int64, msg Message, opts ...Option) (*Sent, error) {
	if msg == nil {
		return nil, errors.New("пустое сообщение")
	}
	funcs, ok := methods[msg.Method()]
	if !ok || funcs.send == nil {
		return nil, errors.Errorf("неподдерживаемый тип сообщения %v", msg.Method())
	}
	result, err := funcs.send(ctx, i.client, i.cfg, chatID, msg)
	i.record(string(msg.Method()), err)
	if err != nil {
		return nil, errors.Wrapf(err, "ошибка отправки сообщения в чат %v", chatID)
	}
	sent := &Sent{ChatID: chatID, MessageID: result.MessageID}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.vacancyID != "" {
		if err = i.storeMessage(o, sent); err != nil {
			i.getLogger(chatID, msg.Method()).
				WithField("vacancy_id", o.vacancyID).
				WithError(err).
				Error("ошибка сохранения отправленного сообщения")
		}
	}
	return sent, nil
}

func (i impl) Update(ctx context.Context, chatID, messageID int64, msg Message) (*Sent, error) {
	if msg == nil {
		return nil, errors.New("пустое сообщение")
	}
	funcs, ok := methods[msg.Method()]
	if !ok || funcs.update == nil {
		return nil, errors.Errorf("сообщение типа %v нельзя изменить", msg.Method())
	}
	_, err := funcs.update(ctx, i.client, chatID, messageID, msg)
	if tgclient.IsNotModified(err) {
		err = nil
	}
	i.record("update_"+string(msg.Method()), err)
	if err != nil {
		return nil, errors.Wrapf(err, "ошибка изменения сообщения %v в чате %v", messageID, chatID)
	}
	return &Sent{ChatID: chatID, MessageID: messageID}, nil
}

func (i impl) storeMessage(o options, sent *Sent) error {
	if i.messages == nil {
		return nil
	}
	vacancyID := o.vacancyID
	switch o.chatKind {
	case ChatKindChannel:
		_, err := i.messages.CreateChannelMessage(dbmodels.ChannelMessage{
			ChatID:    sent.ChatID,
			MessageID: sent.MessageID,
			VacancyID: &vacancyID,
		})
		return err
	case ChatKindGroup:
		_, err := i.messages.CreateGroupMessage(dbmodels.GroupMessage{
			ChatID:    sent.ChatID,
			MessageID: sent.MessageID,
			VacancyID: &vacancyID,
		})
		return err
	}
	return errors.Errorf("неизвестный тип чата %v", o.chatKind)
}

func (i impl) record(method string, err error) {
	if i.recorder != nil {
		i.recorder.NotificationSent(method, err)
	}
}

func sendText(ctx context.Context, client tgclient.Provider, cfg Config, chatID int64, msg Message) (*tgapimodels.Message, error) {
	text := msg.(Text)
	return client.SendMessage(ctx, tgapimodels.SendMessageRequest{
		ChatID:                chatID,
		Text:                  text.Text,
		ParseMode:             ParseMode,
		DisableWebPagePreview: text.DisablePreview,
		ReplyMarkup:           text.Markup,
	})
}

func updateText(ctx context.Context, client tgclient.Provider, chatID, messageID int64, msg Message) (*tgapimodels.Message, error) {
	text := msg.(Text)
	return client.EditMessageText(ctx, tgapimodels.EditMessageTextRequest{
		ChatID:                chatID,
		MessageID:             messageID,
		Text:                  text.Text,
		ParseMode:             ParseMode,
		DisableWebPagePreview: text.DisablePreview,
		ReplyMarkup:           text.Markup,
	})
}

func sendPhoto(ctx context.Context, client tgclient.Provider, cfg Config, chatID int64, msg Message) (*tgapimodels.Message, error) {
	photo := msg.(Photo)
	return client.SendPhoto(ctx, tgapimodels.SendPhotoRequest{
		ChatID:      chatID,
		Photo:       photo.URL,
		Caption:     photo.Caption,
		ParseMode:   ParseMode,
		ReplyMarkup: photo.Markup,
	})
}

func updatePhoto(ctx context.Context, client tgclient.Provider, chatID, messageID int64, msg Message) (*tgapimodels.Message, error) {
	photo := msg.(Photo)
	return client.EditMessageCaption(ctx, tgapimodels.EditMessageCaptionRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Caption:     photo.Caption,
		ParseMode:   ParseMode,
		ReplyMarkup: photo.Markup,
	})
}

func sendInvoice(ctx context.Context, client tgclient.Provider, cfg Config, chatID int64, msg Message) (*tgapimodels.Message, error) {
	invoice := msg.(Invoice)
	currency := invoice.Currency
	if currency == "" {
		currency = cfg.Currency
	}
	if invoice.Amount <= 0 {
		return nil, errors.New("сумма счета должна быть больше 0")
	}
	return client.SendInvoice(ctx, tgapimodels.SendInvoiceRequest{
		ChatID:        chatID,
		Title:         invoice.Title,
		Description:   invoice.Description,
		Payload:       invoice.Payload,
		ProviderToken: cfg.ProviderToken,
		Currency:      currency,
		Prices: []tgapimodels.LabeledPrice{
			{Label: invoice.Label, Amount: invoice.Amount},
		},
	})
}

// ParseMode разметка всех исходящих сообщений
const ParseMode = "HTML"
