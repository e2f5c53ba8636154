package eventbus

import (
	"context"
	dbmodels "shift-tools-backend/models/db"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	name  string
	calls *[]string
	err   error
	panic bool
}

func (h *recordingHandler) Update(ctx context.Context, event Event, payload Payload) error {
	*h.calls = append(*h.calls, h.name)
	if h.panic {
		panic("boom")
	}
	return h.err
}

type countingRecorder struct {
	published int
	failed    int
}

func (r *countingRecorder) EventPublished(event Event) { r.published++ }
func (r *countingRecorder) HandlerFailed(event Event)  { r.failed++ }

func TestBus(t *testing.T) {
	payload := Payload{Vacancy: &dbmodels.Vacancy{BaseModel: dbmodels.BaseModel{ID: "v1"}}}

	t.Run(`subscription order check`, func(t *testing.T) {
		calls := []string{}
		bus := New(nil)
		bus.Subscribe(VacancyClose, &recordingHandler{name: "first", calls: &calls})
		bus.Subscribe(VacancyClose, &recordingHandler{name: "second", calls: &calls})
		bus.Subscribe(VacancyApproved, &recordingHandler{name: "other", calls: &calls})

		result := bus.Publish(context.Background(), VacancyClose, payload)
		require.Equal(t, []string{"first", "second"}, calls)
		require.Equal(t, PublishResult{Delivered: 2}, result)
	})

	t.Run(`failing handler isolation check`, func(t *testing.T) {
		calls := []string{}
		recorder := &countingRecorder{}
		bus := New(recorder)
		bus.Subscribe(VacancyStartCallFail, &recordingHandler{name: "error", calls: &calls, err: errors.New("send failed")})
		bus.Subscribe(VacancyStartCallFail, &recordingHandler{name: "panic", calls: &calls, panic: true})
		bus.Subscribe(VacancyStartCallFail, &recordingHandler{name: "ok", calls: &calls})

		result := bus.Publish(context.Background(), VacancyStartCallFail, payload)
		require.Equal(t, []string{"error", "panic", "ok"}, calls)
		require.Equal(t, PublishResult{Delivered: 1, Failed: 2}, result)
		require.Equal(t, 1, recorder.published)
		require.Equal(t, 2, recorder.failed)
	})

	t.Run(`unsubscribe check`, func(t *testing.T) {
		calls := []string{}
		bus := New(nil)
		first := &recordingHandler{name: "first", calls: &calls}
		second := &recordingHandler{name: "second", calls: &calls}
		bus.Subscribe(VacancyRefind, first)
		bus.Subscribe(VacancyRefind, second)
		bus.Unsubscribe(VacancyRefind, first)

		bus.Publish(context.Background(), VacancyRefind, payload)
		require.Equal(t, []string{"second"}, calls)
		require.Len(t, bus.Handlers(VacancyRefind), 1)
	})

	t.Run(`no subscribers check`, func(t *testing.T) {
		bus := New(nil)
		result := bus.Publish(context.Background(), VacancyDelete, payload)
		require.Equal(t, PublishResult{}, result)
	})
}
