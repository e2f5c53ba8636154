package formatter

import (
	"testing"
	"time"

	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/stretchr/testify/require"
)

func testVacancy() dbmodels.Vacancy {
	return dbmodels.Vacancy{
		BaseModel:     dbmodels.BaseModel{ID: "v1"},
		Gender:        models.GenderAny,
		PeopleCount:   4,
		HasPassport:   true,
		Address:       "Склад <Північний>",
		MapLink:       "https://maps.example/1",
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		StartTime:     "08:00",
		EndTime:       "20:00",
		PaymentAmount: 950,
		PaymentUnit:   models.PaymentUnitShift,
		PaymentMethod: models.PaymentMethodCash,
		Skills:        "Вантажні роботи",
		DateChoice:    models.DateChoiceTomorrow,
		Group:         &dbmodels.Group{ID: -100, InviteLink: "https://t.me/+group"},
	}
}

func TestBase(t *testing.T) {
	t.Run("card check", func(t *testing.T) {
		text := Base(testVacancy())
		require.Contains(t, text, "Завтра 14.03.2026")
		require.Contains(t, text, "Час роботи: з 08:00 до 20:00")
		require.Contains(t, text, "Кількість людей: 4")
		require.Contains(t, text, "Склад &lt;Північний&gt;")
		require.Contains(t, text, "Потрібен паспорт!")
		require.Contains(t, text, "Оплата: 950 грн (зміна/готівкою)")
	})
	t.Run("full channel text check", func(t *testing.T) {
		text := ForChannel(testVacancy(), true)
		require.Contains(t, text, "Набір закрито")
		require.NotContains(t, text, "maps.example")
		require.Equal(t, Base(testVacancy()), ForChannel(testVacancy(), false))
	})
}

func TestCallbackData(t *testing.T) {
	t.Run("round trip check", func(t *testing.T) {
		data := CallbackData(models.CallTypeBeforeStart, models.CallStatusConfirm, "v1")
		require.Equal(t, "call_handler:before_start:confirm:v1", data)
		callType, status, vacancyID, ok := ParseCallbackData(data)
		require.True(t, ok)
		require.Equal(t, models.CallTypeBeforeStart, callType)
		require.Equal(t, models.CallStatusConfirm, status)
		require.Equal(t, "v1", vacancyID)
	})
	t.Run("foreign data check", func(t *testing.T) {
		for _, data := range []string{"", "menu:start", "call_handler:unknown:confirm:v1", "call_handler:start:confirm:"} {
			_, _, _, ok := ParseCallbackData(data)
			require.False(t, ok, data)
		}
	})
}

func TestMarkup(t *testing.T) {
	t.Run("channel markup needs invite check", func(t *testing.T) {
		v := testVacancy()
		require.Equal(t, "https://t.me/+group", ChannelMarkup(v).InlineKeyboard[0][0].URL)
		v.Group = nil
		require.Nil(t, ChannelMarkup(v))
	})
	t.Run("pre call url check", func(t *testing.T) {
		markup := StartCallMarkup("https://shift.example/", "v1")
		require.Equal(t, "https://shift.example/vacancy/v1/pre-call/start", markup.InlineKeyboard[0][0].URL)
	})
	t.Run("staff call fail check", func(t *testing.T) {
		text := StaffCallFail(testVacancy(), []dbmodels.User{{ID: 7, Phone: "+380501112233"}}, "https://shift.example")
		require.Contains(t, text, "+380501112233 - <a href=\"https://shift.example/user/7\">7</a>")
		require.Contains(t, text, "https://t.me/+group")
	})
}
