package notification

import (
	"context"
	"html"
	"regexp"
	dbmodels "shift-tools-backend/models/db"

	log "github.com/sirupsen/logrus"
)

type StaffSource interface {
	ListStaff() ([]dbmodels.User, error)
}

type Mailer interface {
	SendEMail(to []string, subject, message string) error
}

type BroadcastResult struct {
	Sent   int
	Failed int
}

func (i impl) NotifyStaff(ctx context.Context, subject string, msg Message) BroadcastResult {
	logger := log.WithField("subject", subject)
	result := BroadcastResult{}
	for _, chatID := range i.staffChats() {
		if _, err := i.Notify(ctx, chatID, msg); err != nil {
			result.Failed++
			logger.
				WithField("chat_id", chatID).
				WithError(err).
				Warn("не удалось отправить уведомление сотруднику")
			continue
		}
		result.Sent++
	}
	if text, ok := msg.(Text); ok && i.mailer != nil && len(i.cfg.StaffEmails) != 0 {
		if err := i.mailer.SendEMail(i.cfg.StaffEmails, subject, StripTags(text.Text)); err != nil {
			logger.WithError(err).Error("ошибка отправки письма сотрудникам")
		}
	}
	return result
}

func (i impl) staffChats() []int64 {
	seen := map[int64]bool{}
	var result []int64
	add := func(id int64) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		result = append(result, id)
	}
	if i.staff != nil {
		list, err := i.staff.ListStaff()
		if err != nil {
			log.WithError(err).Error("ошибка получения списка сотрудников")
		}
		for _, user := range list {
			add(user.ID)
		}
	}
	for _, id := range i.cfg.StaffChatIDs {
		add(id)
	}
	return result
}

var tagsRe = regexp.MustCompile(`<[^>]*>`)

// StripTags текст сообщения без HTML разметки, для писем
func StripTags(text string) string {
	return html.UnescapeString(tagsRe.ReplaceAllString(text, ""))
}
