package models

// ChatMemberStatus статусы участника чата, общие для Telegram и записей VacancyUser
type ChatMemberStatus string

const (
	ChatMemberCreator       ChatMemberStatus = "creator"
	ChatMemberAdministrator ChatMemberStatus = "administrator"
	ChatMemberOwner         ChatMemberStatus = "owner"
	ChatMemberMember        ChatMemberStatus = "member"
	ChatMemberRestricted    ChatMemberStatus = "restricted"
	ChatMemberLeft          ChatMemberStatus = "left"
	ChatMemberKicked        ChatMemberStatus = "kicked"
	ChatMemberBan           ChatMemberStatus = "ban"
	ChatMemberUnban         ChatMemberStatus = "unban"
)

func (s ChatMemberStatus) IsGone() bool {
	return s == ChatMemberLeft || s == ChatMemberKicked || s == ChatMemberBan
}

type GroupStatus string

const (
	GroupStatusAvailable GroupStatus = "available"
	GroupStatusProcess   GroupStatus = "process"
)

type MessageStatus string

const (
	MessageStatusReceived     MessageStatus = "received"
	MessageStatusDeleted      MessageStatus = "deleted"
	MessageStatusDeleteFailed MessageStatus = "delete_failed"
)
