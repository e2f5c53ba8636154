// Package tgclienttest клиент Bot API в памяти для тестов
package tgclienttest

import (
	"context"
	"sync"

	tgclient "shift-tools-backend/lib/telegram/client"
	tgapimodels "shift-tools-backend/models/api/telegram"
)

// Call один вызов метода Bot API
type Call struct {
	Method    string
	ChatID    int64
	UserID    int64
	MessageID int64
	Text      string
	Request   any
}

type Fake struct {
	mu            sync.Mutex
	Calls         []Call
	Errors        map[string]error // метод -> ошибка, которую вернуть
	ChatErrors    map[int64]error  // chat_id -> ошибка для любых методов
	nextMessageID int64
}

var _ tgclient.Provider = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Errors:        map[string]error{},
		ChatErrors:    map[int64]error{},
		nextMessageID: 100,
	}
}

// CallsOf вызовы указанного метода в порядке выполнения
func (f *Fake) CallsOf(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Call
	for _, call := range f.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
}

func (f *Fake) record(call Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	if err, ok := f.ChatErrors[call.ChatID]; ok {
		return err
	}
	return f.Errors[call.Method]
}

func (f *Fake) message(call Call) (*tgapimodels.Message, error) {
	if err := f.record(call); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	messageID := call.MessageID
	if messageID == 0 {
		f.nextMessageID++
		messageID = f.nextMessageID
	}
	return &tgapimodels.Message{
		MessageID: messageID,
		Chat:      tgapimodels.Chat{ID: call.ChatID},
		Text:      call.Text,
	}, nil
}

func (f *Fake) SendMessage(ctx context.Context, req tgapimodels.SendMessageRequest) (*tgapimodels.Message, error) {
	return f.message(Call{Method: tgclient.MethodSendMessage, ChatID: req.ChatID, Text: req.Text, Request: req})
}

func (f *Fake) SendPhoto(ctx context.Context, req tgapimodels.SendPhotoRequest) (*tgapimodels.Message, error) {
	return f.message(Call{Method: tgclient.MethodSendPhoto, ChatID: req.ChatID, Text: req.Caption, Request: req})
}

func (f *Fake) SendInvoice(ctx context.Context, req tgapimodels.SendInvoiceRequest) (*tgapimodels.Message, error) {
	return f.message(Call{Method: tgclient.MethodSendInvoice, ChatID: req.ChatID, Text: req.Description, Request: req})
}

func (f *Fake) EditMessageText(ctx context.Context, req tgapimodels.EditMessageTextRequest) (*tgapimodels.Message, error) {
	return f.message(Call{Method: tgclient.MethodEditMessageText, ChatID: req.ChatID, MessageID: req.MessageID, Text: req.Text, Request: req})
}

func (f *Fake) EditMessageCaption(ctx context.Context, req tgapimodels.EditMessageCaptionRequest) (*tgapimodels.Message, error) {
	return f.message(Call{Method: tgclient.MethodEditMessageCaption, ChatID: req.ChatID, MessageID: req.MessageID, Text: req.Caption, Request: req})
}

func (f *Fake) EditMessageReplyMarkup(ctx context.Context, req tgapimodels.EditMessageReplyMarkupRequest) (*tgapimodels.Message, error) {
	return f.message(Call{Method: tgclient.MethodEditMessageReplyMarkup, ChatID: req.ChatID, MessageID: req.MessageID, Request: req})
}

func (f *Fake) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return f.record(Call{Method: tgclient.MethodDeleteMessage, ChatID: chatID, MessageID: messageID})
}

func (f *Fake) ApproveChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	return f.record(Call{Method: tgclient.MethodApproveChatJoinRequest, ChatID: chatID, UserID: userID})
}

func (f *Fake) DeclineChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	return f.record(Call{Method: tgclient.MethodDeclineChatJoinRequest, ChatID: chatID, UserID: userID})
}

func (f *Fake) BanChatMember(ctx context.Context, chatID, userID int64) error {
	return f.record(Call{Method: tgclient.MethodBanChatMember, ChatID: chatID, UserID: userID})
}

func (f *Fake) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	return f.record(Call{Method: tgclient.MethodUnbanChatMember, ChatID: chatID, UserID: userID})
}

func (f *Fake) SetChatPermissions(ctx context.Context, chatID int64, permissions tgapimodels.ChatPermissions) error {
	return f.record(Call{Method: tgclient.MethodSetChatPermissions, ChatID: chatID, Request: permissions})
}

func (f *Fake) RestrictChatMember(ctx context.Context, chatID, userID int64, permissions tgapimodels.ChatPermissions) error {
	return f.record(Call{Method: tgclient.MethodRestrictChatMember, ChatID: chatID, UserID: userID, Request: permissions})
}

func (f *Fake) PromoteChatMember(ctx context.Context, req tgapimodels.PromoteChatMemberRequest) error {
	return f.record(Call{Method: tgclient.MethodPromoteChatMember, ChatID: req.ChatID, UserID: req.UserID, Request: req})
}

func (f *Fake) SetChatAdministratorCustomTitle(ctx context.Context, chatID, userID int64, title string) error {
	return f.record(Call{Method: tgclient.MethodSetChatAdministratorCustomTitle, ChatID: chatID, UserID: userID, Text: title})
}

func (f *Fake) CreateChatInviteLink(ctx context.Context, req tgapimodels.CreateChatInviteLinkRequest) (*tgapimodels.ChatInviteLink, error) {
	if err := f.record(Call{Method: tgclient.MethodCreateChatInviteLink, ChatID: req.ChatID, Request: req}); err != nil {
		return nil, err
	}
	return &tgapimodels.ChatInviteLink{
		InviteLink:         "https://t.me/+invite",
		CreatesJoinRequest: req.CreatesJoinRequest,
	}, nil
}

func (f *Fake) ExportChatInviteLink(ctx context.Context, chatID int64) (string, error) {
	if err := f.record(Call{Method: tgclient.MethodExportChatInviteLink, ChatID: chatID}); err != nil {
		return "", err
	}
	return "https://t.me/+exported", nil
}

func (f *Fake) AnswerPreCheckoutQuery(ctx context.Context, req tgapimodels.AnswerPreCheckoutQueryRequest) error {
	return f.record(Call{Method: tgclient.MethodAnswerPreCheckoutQuery, Text: req.ErrorMessage, Request: req})
}

func (f *Fake) AnswerCallbackQuery(ctx context.Context, req tgapimodels.AnswerCallbackQueryRequest) error {
	return f.record(Call{Method: tgclient.MethodAnswerCallbackQuery, Text: req.Text, Request: req})
}
