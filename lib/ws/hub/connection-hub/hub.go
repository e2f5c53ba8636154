package connectionhub

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	wsmodels "shift-tools-backend/models/ws"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type Provider interface {
	AddClient(userID int64, conn Conn)
	DeleteClient(userID int64)
	SendMessage(msg wsmodels.ServerMessage)
	// Broadcast отправка всем подключенным сотрудникам
	Broadcast(msg wsmodels.ServerMessage) (sent int)
	SendClose(userID int64)
	IsConnected(userID int64) bool
	// Update подписчик шины событий: события вакансий уходят в ленту
	Update(ctx context.Context, event eventbus.Event, payload eventbus.Payload) error
}

var Instance Provider

func Init() {
	Instance = NewInstance(time.Now)
}

func NewInstance(now func() time.Time) Provider {
	return &impl{
		clients: map[int64]*clientSession{},
		now:     now,
	}
}

type impl struct {
	mu      sync.RWMutex
	clients map[int64]*clientSession //map[userID]
	now     func() time.Time
}

func (i *impl) DeleteClient(userID int64) {
	i.mu.Lock()
	sess, ok := i.clients[userID]
	if ok {
		delete(i.clients, userID)
	}
	i.mu.Unlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) AddClient(userID int64, conn Conn) {
	i.mu.Lock()
	oldSess, ok := i.clients[userID]
	i.clients[userID] = newSession(conn)
	i.mu.Unlock()
	if ok {
		oldSess.stop()
	}
	log.WithField("user_id", userID).Info("подключен клиент ленты событий")
}

func (i *impl) SendMessage(msg wsmodels.ServerMessage) {
	i.mu.RLock()
	sess, ok := i.clients[msg.ToUserID]
	i.mu.RUnlock()
	if ok {
		sess.push(msg)
	}
}

func (i *impl) Broadcast(msg wsmodels.ServerMessage) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sent := 0
	for userID, sess := range i.clients {
		msg.ToUserID = userID
		if sess.push(msg) {
			sent++
		}
	}
	return sent
}

func (i *impl) SendClose(userID int64) {
	i.mu.RLock()
	sess, ok := i.clients[userID]
	i.mu.RUnlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) IsConnected(userID int64) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[userID]
	return ok && sess.conn != nil
}

func (i *impl) Update(ctx context.Context, event eventbus.Event, payload eventbus.Payload) error {
	msg := wsmodels.ServerMessage{
		Time:   i.now().Format("02.01.2006 15:04:05"),
		Code:   string(event),
		UserID: payload.UserID,
		Msg:    eventText(event),
	}
	if payload.Vacancy != nil {
		msg.VacancyID = payload.Vacancy.ID
		msg.Status = string(payload.Vacancy.Status)
	}
	if payload.Feedback != nil && payload.Feedback.VacancyID != nil {
		msg.VacancyID = *payload.Feedback.VacancyID
	}
	i.Broadcast(msg)
	return nil
}

var eventTexts = map[eventbus.Event]string{
	eventbus.VacancyCreated:                  "Нова вакансія на модерації",
	eventbus.VacancyApproved:                 "Вакансію схвалено",
	eventbus.VacancyRejected:                 "Вакансію відхилено",
	eventbus.VacancyNewMember:                "Новий учасник у групі",
	eventbus.VacancyLeftMember:               "Учасник залишив групу",
	eventbus.VacancyBeforeCall:               "Запит підтвердження перед стартом",
	eventbus.VacancyStartCall:                "Перша перекличка",
	eventbus.VacancyStartCallFail:            "Не всі вийшли на зміну",
	eventbus.VacancyAfterStartCall:           "Друга перекличка",
	eventbus.VacancyAfterStartCallSuccess:    "Зміну відпрацьовано",
	eventbus.VacancyAfterStartCallFail:       "Друга перекличка не пройдена",
	eventbus.VacancyClose:                    "Вакансію закрито",
	eventbus.VacancyCloseForcibly:            "Вакансію закрито примусово",
	eventbus.VacancyClosePaymentDoesNotExist: "Немає оплати за вакансію",
	eventbus.VacancyRefind:                   "Запит на добір працівників",
	eventbus.VacancyDelete:                   "Вакансію видалено",
	eventbus.VacancyNewFeedback:              "Новий відгук",
}

func eventText(event eventbus.Event) string {
	if text, ok := eventTexts[event]; ok {
		return text
	}
	return string(event)
}
