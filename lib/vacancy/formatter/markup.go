package formatter

import (
	"fmt"
	"strings"

	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"
)

const (
	callbackPrefix = "call_handler"
	callbackSep    = ":"
)

// CallbackData данные кнопки переклички: call_handler:{call_type}:{status}:{vacancy_id}
func CallbackData(callType models.CallType, status models.CallStatus, vacancyID string) string {
	return strings.Join([]string{callbackPrefix, string(callType), string(status), vacancyID}, callbackSep)
}

func ParseCallbackData(data string) (callType models.CallType, status models.CallStatus, vacancyID string, ok bool) {
	parts := strings.Split(data, callbackSep)
	if len(parts) != 4 || parts[0] != callbackPrefix || parts[3] == "" {
		return "", "", "", false
	}
	callType = models.CallType(parts[1])
	if !callType.IsValid() {
		return "", "", "", false
	}
	return callType, models.CallStatus(parts[2]), parts[3], true
}

func BeforeStartMarkup(vacancyID string) *tgapimodels.InlineKeyboardMarkup {
	return tgapimodels.NewInlineKeyboard([]tgapimodels.InlineKeyboardButton{{
		Text:         "Підтвердити",
		CallbackData: CallbackData(models.CallTypeBeforeStart, models.CallStatusConfirm, vacancyID),
	}})
}

func StartCallMarkup(baseURL, vacancyID string) *tgapimodels.InlineKeyboardMarkup {
	return tgapimodels.NewInlineKeyboard([]tgapimodels.InlineKeyboardButton{{
		Text: "Підтвердити першу перекличку",
		URL:  PreCallURL(baseURL, vacancyID, models.CallTypeStart),
	}})
}

func FinalCallMarkup(baseURL, vacancyID string) *tgapimodels.InlineKeyboardMarkup {
	return tgapimodels.NewInlineKeyboard([]tgapimodels.InlineKeyboardButton{{
		Text: "Підтвердити другу перекличку",
		URL:  PreCallURL(baseURL, vacancyID, models.CallTypeAfterStart),
	}})
}

// ChannelMarkup кнопка отклика, ведет в группу вакансии
func ChannelMarkup(v dbmodels.Vacancy) *tgapimodels.InlineKeyboardMarkup {
	if v.Group == nil || v.Group.InviteLink == "" {
		return nil
	}
	return tgapimodels.NewInlineKeyboard([]tgapimodels.InlineKeyboardButton{{
		Text: "Відгукнутися на вакансію",
		URL:  v.Group.InviteLink,
	}})
}

func StaffVacancyMarkup(baseURL, vacancyID string) *tgapimodels.InlineKeyboardMarkup {
	return tgapimodels.NewInlineKeyboard([]tgapimodels.InlineKeyboardButton{{
		Text: "🔍 Переглянути вакансію",
		URL:  VacancyURL(baseURL, vacancyID),
	}})
}

func FeedbackMarkup(baseURL, vacancyID string) *tgapimodels.InlineKeyboardMarkup {
	return tgapimodels.NewInlineKeyboard([]tgapimodels.InlineKeyboardButton{{
		Text: "Надіслати відгук",
		URL:  fmt.Sprintf("%s/vacancy/%s/feedback", strings.TrimRight(baseURL, "/"), vacancyID),
	}})
}

func PreCallURL(baseURL, vacancyID string, callType models.CallType) string {
	return fmt.Sprintf("%s/vacancy/%s/pre-call/%s", strings.TrimRight(baseURL, "/"), vacancyID, callType)
}

func VacancyURL(baseURL, vacancyID string) string {
	return fmt.Sprintf("%s/vacancy/%s", strings.TrimRight(baseURL, "/"), vacancyID)
}

func userURL(baseURL string, userID int64) string {
	return fmt.Sprintf("%s/user/%d", strings.TrimRight(baseURL, "/"), userID)
}
