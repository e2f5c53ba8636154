package eventbus

import (
	"context"
	"fmt"
	"runtime/debug"
	dbmodels "shift-tools-backend/models/db"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Payload данные события. Vacancy заполнен для всех событий вакансии
type Payload struct {
	Vacancy  *dbmodels.Vacancy
	Feedback *dbmodels.UserFeedback
	// UserID участник, к которому относится событие (вступил/вышел)
	UserID int64
	// ActorID кто инициировал событие, nil для системных задач
	ActorID *int64
}

func (p Payload) VacancyID() string {
	if p.Vacancy == nil {
		return ""
	}
	return p.Vacancy.ID
}

// Handler подписчик события. Подписчики сравниваются по значению интерфейса,
// поэтому для Unsubscribe реализация должна быть сравнимой (обычно указатель)
type Handler interface {
	Update(ctx context.Context, event Event, payload Payload) error
}

type Recorder interface {
	EventPublished(event Event)
	HandlerFailed(event Event)
}

type PublishResult struct {
	Delivered int
	Failed    int
}

type Publisher interface {
	Publish(ctx context.Context, event Event, payload Payload) PublishResult
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
	recorder Recorder
}

func New(recorder Recorder) *Bus {
	return &Bus{
		handlers: map[Event][]Handler{},
		recorder: recorder,
	}
}

func (b *Bus) Subscribe(event Event, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Unsubscribe удаляет первую подписку handler на событие
func (b *Bus) Unsubscribe(event Event, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[event]
	for idx, item := range list {
		if item == handler {
			updated := make([]Handler, 0, len(list)-1)
			updated = append(updated, list[:idx]...)
			updated = append(updated, list[idx+1:]...)
			b.handlers[event] = updated
			return
		}
	}
}

func (b *Bus) Handlers(event Event) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Publish синхронно вызывает подписчиков в порядке подписки.
// Ошибка или паника подписчика логируется и не мешает остальным
func (b *Bus) Publish(ctx context.Context, event Event, payload Payload) PublishResult {
	handlers := b.Handlers(event)
	if b.recorder != nil {
		b.recorder.EventPublished(event)
	}
	logger := log.
		WithField("event", string(event)).
		WithField("vacancy_id", payload.VacancyID())
	result := PublishResult{}
	for _, handler := range handlers {
		if err := b.dispatch(ctx, handler, event, payload); err != nil {
			result.Failed++
			if b.recorder != nil {
				b.recorder.HandlerFailed(event)
			}
			logger.
				WithField("handler", fmt.Sprintf("%T", handler)).
				WithError(err).
				Error("ошибка обработки события")
			continue
		}
		result.Delivered++
	}
	logger.
		WithField("delivered", result.Delivered).
		WithField("failed", result.Failed).
		Debug("событие обработано")
	return result
}

func (b *Bus) dispatch(ctx context.Context, handler Handler, event Event, payload Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic_stack", string(debug.Stack())).Errorf("panic: (%v)", r)
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return handler.Update(ctx, event, payload)
}
