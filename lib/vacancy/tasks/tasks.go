package vacancytasks

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/repository"
	"shift-tools-backend/lib/utils/helpers"
	"shift-tools-backend/lib/utils/lock"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	"shift-tools-backend/lib/vacancy/recruitment"
	dbmodels "shift-tools-backend/models/db"
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	TaskBeforeStartCall     = "before_start_call_task"
	TaskAfterFirstCallCheck = "after_first_call_check_task"
	TaskStartCallCheck      = "start_call_check_task"
	TaskFinalCallCheck      = "final_call_check_task"
	TaskCloseVacancy        = "close_vacancy_task"
	TaskResendToChannel     = "resend_vacancies_to_channel_task"
)

var ErrUnknownTask = errors.New("неизвестная задача")

type Provider interface {
	// BeforeStartCall за окно до начала смены участникам уходит запрос подтверждения
	BeforeStartCall(ctx context.Context) error
	// AfterFirstCallCheck удаляет из группы тех, кто не подтвердил готовность
	AfterFirstCallCheck(ctx context.Context) error
	StartCallCheck(ctx context.Context) error
	FinalCallCheck(ctx context.Context) error
	CloseVacancies(ctx context.Context) error
	ResendToChannel(ctx context.Context) error
	// Run запускает задачу по имени; ran == false, если она уже выполняется
	Run(ctx context.Context, name string) (ran bool, err error)
	Names() []string
}

type Recorder interface {
	TaskFinished(task string, started time.Time, err error)
}

type Config struct {
	Location           *time.Location
	Now                func() time.Time
	BeforeStartWindow  time.Duration
	BeforeStartConfirm time.Duration
	StartWindow        time.Duration
	CloseDelay         time.Duration
	LockTTL            time.Duration
}

var Instance Provider

func NewHandler(repo repository.Provider, publisher eventbus.Publisher, calls vacancycall.Provider, recruiter recruitment.Provider, locker lock.Locker, recorder Recorder, cfg Config) {
	Instance = NewInstance(repo, publisher, calls, recruiter, locker, recorder, cfg)
}

func NewInstance(repo repository.Provider, publisher eventbus.Publisher, calls vacancycall.Provider, recruiter recruitment.Provider, locker lock.Locker, recorder Recorder, cfg Config) Provider {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.BeforeStartWindow <= 0 {
		cfg.BeforeStartWindow = 120 * time.Minute
	}
	if cfg.BeforeStartConfirm <= 0 {
		cfg.BeforeStartConfirm = 20 * time.Minute
	}
	if cfg.StartWindow <= 0 {
		cfg.StartWindow = 10 * time.Minute
	}
	if cfg.CloseDelay <= 0 {
		cfg.CloseDelay = 120 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if locker == nil {
		locker = lock.NewLocker(nil)
	}
	i := &impl{
		repo:        repo,
		publisher:   publisher,
		calls:       calls,
		recruitment: recruiter,
		locker:      locker,
		recorder:    recorder,
		cfg:         cfg,
	}
	i.tasks = map[string]func(ctx context.Context) error{
		TaskBeforeStartCall:     i.BeforeStartCall,
		TaskAfterFirstCallCheck: i.AfterFirstCallCheck,
		TaskStartCallCheck:      i.StartCallCheck,
		TaskFinalCallCheck:      i.FinalCallCheck,
		TaskCloseVacancy:        i.CloseVacancies,
		TaskResendToChannel:     i.ResendToChannel,
	}
	return i
}

type impl struct {
	repo        repository.Provider
	publisher   eventbus.Publisher
	calls       vacancycall.Provider
	recruitment recruitment.Provider
	locker      lock.Locker
	recorder    Recorder
	cfg         Config
	tasks       map[string]func(ctx context.Context) error
}

func (i *impl) getLogger(task string) *log.Entry {
	return log.WithField("task", task)
}

func (i *impl) Names() []string {
	names := make([]string, 0, len(i.tasks))
	for name := range i.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (i *impl) Run(ctx context.Context, name string) (bool, error) {
	task, ok := i.tasks[name]
	if !ok {
		return false, errors.Wrap(ErrUnknownTask, name)
	}
	started := time.Now()
	ran, err := i.locker.TryRun(ctx, "task:"+name, i.cfg.LockTTL, func() error {
		return task(ctx)
	})
	if !ran && err == nil {
		i.getLogger(name).Info("задача уже выполняется, запуск пропущен")
		return false, nil
	}
	if i.recorder != nil {
		i.recorder.TaskFinished(name, started, err)
	}
	return ran, err
}

// days даты смен, которые могут попасть в окно задачи
func (i *impl) days(offsets ...int) []time.Time {
	now := i.cfg.Now().In(i.cfg.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	result := make([]time.Time, 0, len(offsets))
	for _, offset := range offsets {
		result = append(result, today.AddDate(0, 0, offset))
	}
	return result
}

// forEach выполняет fn для каждой вакансии отдельно: ошибка одной вакансии не останавливает обход
func (i *impl) forEach(ctx context.Context, task string, list []dbmodels.Vacancy, fn func(vacancy *dbmodels.Vacancy, logger *log.Entry) error) {
	for idx := range list {
		if helpers.IsContextDone(ctx) {
			i.getLogger(task).Info("обход вакансий прерван остановкой сервиса")
			return
		}
		vacancy := &list[idx]
		logger := i.getLogger(task).WithField("vacancy_id", vacancy.ID)
		if err := fn(vacancy, logger); err != nil {
			logger.WithError(err).Error("ошибка обработки вакансии")
		}
	}
}

// beforeStart вакансии, до начала которых осталось меньше окна
func (i *impl) beforeStart(task string) ([]dbmodels.Vacancy, error) {
	list, err := i.repo.Vacancies().ListLiveByDates(i.days(0, 1))
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения списка вакансий")
	}
	now := i.cfg.Now()
	var result []dbmodels.Vacancy
	for _, vacancy := range list {
		start, err := vacancy.StartAt(i.cfg.Location)
		if err != nil {
			i.getLogger(task).WithField("vacancy_id", vacancy.ID).WithError(err).Warn("некорректное время начала смены")
			continue
		}
		if now.After(start.Add(-i.cfg.BeforeStartWindow)) && now.Before(start) {
			result = append(result, vacancy)
		}
	}
	return result, nil
}

// finished вакансии, смена которых закончилась больше delay назад. Нижней границы нет:
// пропущенные при простое планировщика вакансии тоже попадают, повтор отсекают флаги
func (i *impl) finished(task string, delay time.Duration) ([]dbmodels.Vacancy, error) {
	list, err := i.repo.Vacancies().ListLiveUntil(i.days(0)[0])
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения списка вакансий")
	}
	now := i.cfg.Now()
	var result []dbmodels.Vacancy
	for _, vacancy := range list {
		end, err := vacancy.EndAt(i.cfg.Location)
		if err != nil {
			i.getLogger(task).WithField("vacancy_id", vacancy.ID).WithError(err).Warn("некорректное время окончания смены")
			continue
		}
		if now.After(end.Add(delay)) {
			result = append(result, vacancy)
		}
	}
	return result, nil
}

func (i *impl) BeforeStartCall(ctx context.Context) error {
	list, err := i.beforeStart(TaskBeforeStartCall)
	if err != nil {
		return err
	}
	i.forEach(ctx, TaskBeforeStartCall, list, func(vacancy *dbmodels.Vacancy, logger *log.Entry) error {
		result := i.publisher.Publish(ctx, eventbus.VacancyBeforeCall, eventbus.Payload{Vacancy: vacancy})
		if result.Failed > 0 {
			return errors.Errorf("ошибок подписчиков: %v", result.Failed)
		}
		return nil
	})
	return nil
}

func (i *impl) AfterFirstCallCheck(ctx context.Context) error {
	list, err := i.beforeStart(TaskAfterFirstCallCheck)
	if err != nil {
		return err
	}
	i.forEach(ctx, TaskAfterFirstCallCheck, list, func(vacancy *dbmodels.Vacancy, logger *log.Entry) error {
		_, err := i.calls.CheckBeforeStartTimeouts(ctx, vacancy, i.cfg.BeforeStartConfirm)
		return err
	})
	return nil
}

func (i *impl) StartCallCheck(ctx context.Context) error {
	list, err := i.repo.Vacancies().ListLiveByDates(i.days(0, 1))
	if err != nil {
		return errors.Wrap(err, "ошибка получения списка вакансий")
	}
	now := i.cfg.Now()
	i.forEach(ctx, TaskStartCallCheck, list, func(vacancy *dbmodels.Vacancy, logger *log.Entry) error {
		if vacancy.Workflow.SentStartCall {
			return nil
		}
		start, err := vacancy.StartAt(i.cfg.Location)
		if err != nil {
			return err
		}
		if !now.After(start) || !now.Before(start.Add(i.cfg.StartWindow)) {
			return nil
		}
		started, err := i.calls.StartCall(ctx, vacancy)
		if started {
			logger.Info("запущена перекличка на старте смены")
		}
		return err
	})
	return nil
}

func (i *impl) FinalCallCheck(ctx context.Context) error {
	list, err := i.finished(TaskFinalCallCheck, 0)
	if err != nil {
		return err
	}
	i.forEach(ctx, TaskFinalCallCheck, list, func(vacancy *dbmodels.Vacancy, logger *log.Entry) error {
		if vacancy.Workflow.SentFinalCall {
			return nil
		}
		started, err := i.calls.FinalCall(ctx, vacancy)
		if started {
			logger.Info("запущена финальная перекличка")
		}
		return err
	})
	return nil
}

func (i *impl) CloseVacancies(ctx context.Context) error {
	list, err := i.finished(TaskCloseVacancy, i.cfg.CloseDelay)
	if err != nil {
		return err
	}
	i.forEach(ctx, TaskCloseVacancy, list, func(vacancy *dbmodels.Vacancy, logger *log.Entry) error {
		if vacancy.Workflow.PaymentChecked {
			return nil
		}
		_, err := i.calls.CloseCheck(ctx, vacancy)
		return err
	})
	return nil
}

func (i *impl) ResendToChannel(ctx context.Context) error {
	resent, err := i.recruitment.ResendSweep(ctx)
	if err != nil {
		return err
	}
	if resent > 0 {
		i.getLogger(TaskResendToChannel).
			WithField("resent", resent).
			Info("вакансии переопубликованы в канале")
	}
	return nil
}
