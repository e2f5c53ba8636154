package formatter

import (
	"fmt"
	"html"
	"strings"

	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"
)

const dateLayout = "02.01.2006"

func dateChoice(v dbmodels.Vacancy) string {
	switch v.DateChoice {
	case models.DateChoiceNow:
		return "Сьогодні"
	case models.DateChoiceTomorrow:
		return "Завтра"
	}
	return ""
}

func conditions(v dbmodels.Vacancy) string {
	b := strings.Builder{}
	if v.HasPassport {
		b.WriteString("Потрібен паспорт!\n")
	}
	b.WriteString(fmt.Sprintf("Оплата: %d грн (%s/%s)\n",
		int64(v.PaymentAmount), v.PaymentUnit.ToHuman(), v.PaymentMethod.ToHuman()))
	return b.String()
}

// Base карточка вакансии
func Base(v dbmodels.Vacancy) string {
	b := strings.Builder{}
	b.WriteString(strings.TrimSpace(dateChoice(v) + " " + v.Date.Format(dateLayout)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Стать: %s\n", v.Gender.ToHuman()))
	b.WriteString(fmt.Sprintf("Час роботи: з %s до %s\n", v.StartTime, v.EndTime))
	b.WriteString(fmt.Sprintf("Кількість людей: %d\n", v.PeopleCount))
	if v.MapLink != "" {
		b.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a>\n\n", html.EscapeString(v.MapLink), html.EscapeString(v.Address)))
	} else {
		b.WriteString(html.EscapeString(v.Address) + "\n\n")
	}
	if v.Skills != "" {
		b.WriteString(html.EscapeString(v.Skills) + "\n\n")
	}
	b.WriteString(conditions(v))
	return b.String()
}

func ForOwnerCreated(v dbmodels.Vacancy) string {
	return "Вашу заявку створено, вона на модерації\n\n" + Base(v)
}

func ForOwnerApproved(v dbmodels.Vacancy) string {
	return "Вашу заявку схвалено, розпочато пошук працівників\n\n" + Base(v)
}

func ForOwnerRejected(v dbmodels.Vacancy, comment string) string {
	text := "Вашу заявку відхилено модератором"
	if comment != "" {
		text += ": " + html.EscapeString(comment)
	}
	return text + "\n\n" + Base(v)
}

func ForStaff(v dbmodels.Vacancy) string {
	return "Нова заявка на модерацію\n\n" + Base(v)
}

func ForStaffRefind(v dbmodels.Vacancy) string {
	return "Запущено додатковий пошук працівників\n\n" + Base(v)
}

func ForStaffFeedback(feedback dbmodels.UserFeedback) string {
	return "Новий відгук\n\n" + html.EscapeString(feedback.Text)
}

func ForGroup(v dbmodels.Vacancy) string {
	return Base(v)
}

// ForChannel текст поста в канале. full - набор завершен
func ForChannel(v dbmodels.Vacancy, full bool) string {
	if !full {
		return Base(v)
	}
	b := strings.Builder{}
	b.WriteString(v.Date.Format(dateLayout) + "\n")
	b.WriteString(fmt.Sprintf("Стать: %s\n", v.Gender.ToHuman()))
	b.WriteString(fmt.Sprintf("Час роботи: з %s до %s\n", v.StartTime, v.EndTime))
	b.WriteString(fmt.Sprintf("Кількість людей: %d\n\n", v.PeopleCount))
	if v.Skills != "" {
		b.WriteString(html.EscapeString(v.Skills) + "\n\n")
	}
	b.WriteString(conditions(v))
	b.WriteString("Набір закрито")
	return b.String()
}

func BeforeStartCall() string {
	return "Робота скоро почнеться, підтвердіть готовність протягом 20 хвилин."
}

func StartCall() string {
	return "Будь ласка, позначте працівників, які вийшли на зміну."
}

func FinalCall() string {
	return StartCall()
}

func InvoiceTitle() string {
	return "Оплата послуг з пошуку працівників"
}

func InvoiceDescription(v dbmodels.Vacancy) string {
	return "Вакансія №" + v.ID
}

func InvoiceLabel(workersCount int) string {
	return fmt.Sprintf("Пошук працівників x%d", workersCount)
}

// StartCallFail сообщение участнику, которого заказчик отметил как не вышедшего
func StartCallFail(v dbmodels.Vacancy) string {
	text := "Роботодавець відмітив, що ви не вийшли на зміну."
	if v.Group != nil && v.Group.InviteLink != "" {
		text += "\n" + v.Group.InviteLink
	}
	return text
}

// StaffCallFail список не вышедших работников для сотрудников
func StaffCallFail(v dbmodels.Vacancy, rejected []dbmodels.User, baseURL string) string {
	b := strings.Builder{}
	b.WriteString("Працівники не вийшли на зміну\n")
	for _, user := range rejected {
		name := user.DisplayName()
		if user.FullName == "" && user.Username == "" {
			name = fmt.Sprint(user.ID)
		}
		b.WriteString(fmt.Sprintf("%s - <a href=\"%s\">%s</a>\n",
			user.Phone, html.EscapeString(userURL(baseURL, user.ID)), html.EscapeString(name)))
	}
	if v.Group != nil && v.Group.InviteLink != "" {
		b.WriteString(v.Group.InviteLink)
	}
	return strings.TrimRight(b.String(), "\n")
}

func ForOwnerCallFail(v dbmodels.Vacancy) string {
	return "Перекличку завершено, не всі працівники вийшли на зміну. Ми вже шукаємо рішення.\n\n" + Base(v)
}

func ForOwnerForceClosed(v dbmodels.Vacancy) string {
	return "Вакансію закрито адміністратором\n\n" + Base(v)
}

func ForOwnerClosed(v dbmodels.Vacancy) string {
	return "Вакансію закрито. Дякуємо, що скористалися сервісом!\n\n" + Base(v)
}

func ForStaffClosed(v dbmodels.Vacancy) string {
	return "Вакансію закрито\n\n" + Base(v)
}

func ForStaffForceClosed(v dbmodels.Vacancy) string {
	return "Вакансію закрито примусово\n\n" + Base(v)
}

func ForStaffPaymentMissing(v dbmodels.Vacancy) string {
	text := "Вакансію не оплачено\n\n" + Base(v)
	if v.Group != nil && v.Group.InviteLink != "" {
		text += "\n" + v.Group.InviteLink
	}
	return text
}

func AnswerSaved() string {
	return "Відповідь збережено"
}

func NotParticipant() string {
	return "Ви більше не є учасником цієї вакансії"
}

func UnknownAction() string {
	return "Дія недоступна"
}

// Welcome ответ на личное сообщение боту
func Welcome(baseURL string) string {
	return "Вітаємо! Створити вакансію та переглянути свої заявки можна тут: " + baseURL
}
