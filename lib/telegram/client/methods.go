package tgclient

import (
	"context"
	tgapimodels "shift-tools-backend/models/api/telegram"
)

const (
	MethodSendMessage                     = "sendMessage"
	MethodSendPhoto                       = "sendPhoto"
	MethodSendInvoice                     = "sendInvoice"
	MethodEditMessageText                 = "editMessageText"
	MethodEditMessageCaption              = "editMessageCaption"
	MethodEditMessageReplyMarkup          = "editMessageReplyMarkup"
	MethodDeleteMessage                   = "deleteMessage"
	MethodApproveChatJoinRequest          = "approveChatJoinRequest"
	MethodDeclineChatJoinRequest          = "declineChatJoinRequest"
	MethodBanChatMember                   = "banChatMember"
	MethodUnbanChatMember                 = "unbanChatMember"
	MethodSetChatPermissions              = "setChatPermissions"
	MethodRestrictChatMember              = "restrictChatMember"
	MethodPromoteChatMember               = "promoteChatMember"
	MethodSetChatAdministratorCustomTitle = "setChatAdministratorCustomTitle"
	MethodCreateChatInviteLink            = "createChatInviteLink"
	MethodExportChatInviteLink            = "exportChatInviteLink"
	MethodAnswerPreCheckoutQuery          = "answerPreCheckoutQuery"
	MethodAnswerCallbackQuery             = "answerCallbackQuery"
)

func (i impl) SendMessage(ctx context.Context, req tgapimodels.SendMessageRequest) (*tgapimodels.Message, error) {
	return i.message(ctx, MethodSendMessage, req)
}

func (i impl) SendPhoto(ctx context.Context, req tgapimodels.SendPhotoRequest) (*tgapimodels.Message, error) {
	return i.message(ctx, MethodSendPhoto, req)
}

func (i impl) SendInvoice(ctx context.Context, req tgapimodels.SendInvoiceRequest) (*tgapimodels.Message, error) {
	return i.message(ctx, MethodSendInvoice, req)
}

func (i impl) EditMessageText(ctx context.Context, req tgapimodels.EditMessageTextRequest) (*tgapimodels.Message, error) {
	return i.message(ctx, MethodEditMessageText, req)
}

func (i impl) EditMessageCaption(ctx context.Context, req tgapimodels.EditMessageCaptionRequest) (*tgapimodels.Message, error) {
	return i.message(ctx, MethodEditMessageCaption, req)
}

func (i impl) EditMessageReplyMarkup(ctx context.Context, req tgapimodels.EditMessageReplyMarkupRequest) (*tgapimodels.Message, error) {
	return i.message(ctx, MethodEditMessageReplyMarkup, req)
}

func (i impl) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return i.call(ctx, MethodDeleteMessage, tgapimodels.DeleteMessageRequest{ChatID: chatID, MessageID: messageID}, nil)
}

func (i impl) ApproveChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	return i.call(ctx, MethodApproveChatJoinRequest, tgapimodels.ChatUserRequest{ChatID: chatID, UserID: userID}, nil)
}

func (i impl) DeclineChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	return i.call(ctx, MethodDeclineChatJoinRequest, tgapimodels.ChatUserRequest{ChatID: chatID, UserID: userID}, nil)
}

func (i impl) BanChatMember(ctx context.Context, chatID, userID int64) error {
	return i.call(ctx, MethodBanChatMember, tgapimodels.ChatUserRequest{ChatID: chatID, UserID: userID}, nil)
}

func (i impl) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	req := tgapimodels.UnbanChatMemberRequest{ChatID: chatID, UserID: userID, OnlyIfBanned: true}
	return i.call(ctx, MethodUnbanChatMember, req, nil)
}

func (i impl) SetChatPermissions(ctx context.Context, chatID int64, permissions tgapimodels.ChatPermissions) error {
	req := tgapimodels.SetChatPermissionsRequest{ChatID: chatID, Permissions: permissions}
	return i.call(ctx, MethodSetChatPermissions, req, nil)
}

func (i impl) RestrictChatMember(ctx context.Context, chatID, userID int64, permissions tgapimodels.ChatPermissions) error {
	req := tgapimodels.RestrictChatMemberRequest{ChatID: chatID, UserID: userID, Permissions: permissions}
	return i.call(ctx, MethodRestrictChatMember, req, nil)
}

func (i impl) PromoteChatMember(ctx context.Context, req tgapimodels.PromoteChatMemberRequest) error {
	return i.call(ctx, MethodPromoteChatMember, req, nil)
}

func (i impl) SetChatAdministratorCustomTitle(ctx context.Context, chatID, userID int64, title string) error {
	req := tgapimodels.SetAdministratorCustomTitleRequest{ChatID: chatID, UserID: userID, CustomTitle: title}
	return i.call(ctx, MethodSetChatAdministratorCustomTitle, req, nil)
}

func (i impl) CreateChatInviteLink(ctx context.Context, req tgapimodels.CreateChatInviteLinkRequest) (*tgapimodels.ChatInviteLink, error) {
	link := tgapimodels.ChatInviteLink{}
	if err := i.call(ctx, MethodCreateChatInviteLink, req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (i impl) ExportChatInviteLink(ctx context.Context, chatID int64) (string, error) {
	var link string
	if err := i.call(ctx, MethodExportChatInviteLink, tgapimodels.ChatIDRequest{ChatID: chatID}, &link); err != nil {
		return "", err
	}
	return link, nil
}

func (i impl) AnswerPreCheckoutQuery(ctx context.Context, req tgapimodels.AnswerPreCheckoutQueryRequest) error {
	return i.call(ctx, MethodAnswerPreCheckoutQuery, req, nil)
}

func (i impl) AnswerCallbackQuery(ctx context.Context, req tgapimodels.AnswerCallbackQueryRequest) error {
	return i.call(ctx, MethodAnswerCallbackQuery, req, nil)
}

func (i impl) message(ctx context.Context, method string, req any) (*tgapimodels.Message, error) {
	msg := tgapimodels.Message{}
	if err := i.call(ctx, method, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
