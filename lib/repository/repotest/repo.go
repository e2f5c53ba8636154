// Package repotest хранилища в памяти для тестов бизнес-логики
package repotest

import (
	"sort"
	"sync"
	"time"

	paymentstore "shift-tools-backend/lib/payment/store"
	"shift-tools-backend/lib/repository"
	channelstore "shift-tools-backend/lib/telegram/channel-store"
	groupstore "shift-tools-backend/lib/telegram/group-store"
	messagestore "shift-tools-backend/lib/telegram/message-store"
	useringroupstore "shift-tools-backend/lib/telegram/user-in-group-store"
	feedbackstore "shift-tools-backend/lib/user/feedback-store"
	userstore "shift-tools-backend/lib/user/store"
	callstore "shift-tools-backend/lib/vacancy/call-store"
	historystore "shift-tools-backend/lib/vacancy/history-store"
	vacancymemberstore "shift-tools-backend/lib/vacancy/member-store"
	vacancystore "shift-tools-backend/lib/vacancy/store"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	dbmodels "shift-tools-backend/models/db"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Repo struct {
	mu sync.Mutex

	Now    func() time.Time
	FailOn map[string]error // имя метода ("Vacancies.ListLive") -> ошибка

	VacancyRecs     map[string]*dbmodels.Vacancy
	MemberRecs      []*dbmodels.VacancyUser
	CallRecs        []*dbmodels.VacancyUserCall
	HistoryRecs     []dbmodels.VacancyStatusHistory
	GroupRecs       map[int64]*dbmodels.Group
	ChannelRecs     map[int64]*dbmodels.Channel
	ChannelMessages []*dbmodels.ChannelMessage
	GroupMessages   []*dbmodels.GroupMessage
	UserInGroupRecs []*dbmodels.UserInGroup
	UserRecs        map[int64]*dbmodels.User
	FeedbackRecs    []dbmodels.UserFeedback
	PaymentRecs     []*dbmodels.Payment
	PreCheckoutLogs []dbmodels.PreCheckoutLog
}

func New() *Repo {
	return &Repo{
		Now:         time.Now,
		FailOn:      map[string]error{},
		VacancyRecs: map[string]*dbmodels.Vacancy{},
		GroupRecs:   map[int64]*dbmodels.Group{},
		ChannelRecs: map[int64]*dbmodels.Channel{},
		UserRecs:    map[int64]*dbmodels.User{},
	}
}

var _ repository.Provider = (*Repo)(nil)

func (r *Repo) Vacancies() vacancystore.Provider         { return vacancies{r} }
func (r *Repo) Members() vacancymemberstore.Provider     { return members{r} }
func (r *Repo) Calls() callstore.Provider                { return calls{r} }
func (r *Repo) History() historystore.Provider           { return history{r} }
func (r *Repo) Groups() groupstore.Provider              { return groups{r} }
func (r *Repo) Channels() channelstore.Provider          { return channels{r} }
func (r *Repo) Messages() messagestore.Provider          { return messages{r} }
func (r *Repo) UsersInGroups() useringroupstore.Provider { return usersInGroups{r} }
func (r *Repo) Users() userstore.Provider                { return users{r} }
func (r *Repo) Feedback() feedbackstore.Provider         { return feedback{r} }
func (r *Repo) Payments() paymentstore.Provider          { return payments{r} }

// Transaction без отката: тестам достаточно последовательного выполнения
func (r *Repo) Transaction(fn func(tx repository.Provider) error) error {
	if err := r.fail("Transaction"); err != nil {
		return err
	}
	return fn(r)
}

// AddVacancy кладет вакансию как есть, проставляя id и время создания при отсутствии
func (r *Repo) AddVacancy(rec dbmodels.Vacancy) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.Now()
	}
	r.VacancyRecs[rec.ID] = &rec
	return rec.ID
}

func (r *Repo) AddUser(rec dbmodels.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UserRecs[rec.ID] = &rec
}

func (r *Repo) AddGroup(rec dbmodels.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.Status == "" {
		rec.Status = models.GroupStatusAvailable
	}
	r.GroupRecs[rec.ID] = &rec
}

func (r *Repo) AddChannel(rec dbmodels.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ChannelRecs[rec.ID] = &rec
}

// AddMembers добавляет участников со статусом member
func (r *Repo) AddMembers(vacancyID string, userIDs ...int64) {
	for _, userID := range userIDs {
		_, _ = r.Members().Upsert(vacancyID, userID, models.ChatMemberMember)
	}
}

// Vacancy текущее состояние вакансии (копия)
func (r *Repo) Vacancy(id string) dbmodels.Vacancy {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.VacancyRecs[id]
	if !ok {
		return dbmodels.Vacancy{}
	}
	return *rec
}

// CallStatuses статус переклички по telegram id участника
func (r *Repo) CallStatuses(vacancyID string, callType models.CallType) map[int64]models.CallStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := map[int64]models.CallStatus{}
	for _, call := range r.CallRecs {
		if call.CallType != callType {
			continue
		}
		member := r.memberByID(call.VacancyUserID)
		if member == nil || member.VacancyID != vacancyID {
			continue
		}
		result[member.UserID] = call.Status
	}
	return result
}

func (r *Repo) fail(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.FailOn[name]
}

func (r *Repo) memberByID(id string) *dbmodels.VacancyUser {
	for _, member := range r.MemberRecs {
		if member.ID == id {
			return member
		}
	}
	return nil
}

func (r *Repo) preloadVacancy(rec dbmodels.Vacancy) dbmodels.Vacancy {
	if owner, ok := r.UserRecs[rec.OwnerID]; ok {
		copied := *owner
		rec.Owner = &copied
	}
	if rec.GroupID != nil {
		if group, ok := r.GroupRecs[*rec.GroupID]; ok {
			copied := *group
			rec.Group = &copied
		}
	}
	if rec.ChannelID != nil {
		if channel, ok := r.ChannelRecs[*rec.ChannelID]; ok {
			copied := *channel
			rec.Channel = &copied
		}
	}
	return rec
}

func (r *Repo) preloadMember(rec dbmodels.VacancyUser) dbmodels.VacancyUser {
	if user, ok := r.UserRecs[rec.UserID]; ok {
		copied := *user
		rec.User = &copied
	} else {
		rec.User = &dbmodels.User{ID: rec.UserID, IsActive: true}
	}
	return rec
}

type vacancies struct{ r *Repo }

func (s vacancies) Create(rec dbmodels.Vacancy) (string, error) {
	if err := s.r.fail("Vacancies.Create"); err != nil {
		return "", err
	}
	return s.r.AddVacancy(rec), nil
}

func (s vacancies) GetByID(id string) (*dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.GetByID"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.VacancyRecs[id]
	if !ok {
		return nil, nil
	}
	result := s.r.preloadVacancy(*rec)
	return &result, nil
}

func (s vacancies) GetByIDForUpdate(id string) (*dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.VacancyRecs[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (s vacancies) GetLiveByGroup(groupID int64) (*dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.GetLiveByGroup"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var found *dbmodels.Vacancy
	for _, rec := range s.r.VacancyRecs {
		if rec.GroupID == nil || *rec.GroupID != groupID || !rec.Status.IsLive() {
			continue
		}
		if found == nil || rec.CreatedAt.After(found.CreatedAt) {
			found = rec
		}
	}
	if found == nil {
		return nil, nil
	}
	result := s.r.preloadVacancy(*found)
	return &result, nil
}

func (s vacancies) Update(id string, updMap map[string]interface{}) error {
	if err := s.r.fail("Vacancies.Update"); err != nil {
		return err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.VacancyRecs[id]
	if !ok {
		return errors.New("запись не найдена")
	}
	for key, value := range updMap {
		switch key {
		case "status":
			rec.Status = value.(models.VacancyStatus)
		case "group_id":
			rec.GroupID = int64Ptr(value)
		case "channel_id":
			rec.ChannelID = int64Ptr(value)
		case "wf_start_pre_call":
			rec.Workflow.StartPreCall = value.(models.StartPreCall)
		case "wf_calls":
			rec.Workflow.Calls = value.(dbmodels.CallSelection)
		case "extra":
			rec.Extra = value.(dbmodels.ExtData)
		default:
			return errors.Errorf("неизвестное поле %v", key)
		}
	}
	return nil
}

func (s vacancies) UpdateStatus(id string, from, to models.VacancyStatus) (bool, error) {
	if err := s.r.fail("Vacancies.UpdateStatus"); err != nil {
		return false, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.VacancyRecs[id]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	return true, nil
}

func (s vacancies) SetFlag(id string, flag dbmodels.WorkflowFlag) (bool, error) {
	if err := s.r.fail("Vacancies.SetFlag"); err != nil {
		return false, err
	}
	if !flag.IsValid() {
		return false, errors.Errorf("неизвестный флаг %v", flag)
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.VacancyRecs[id]
	if !ok || rec.Workflow.IsSet(flag) {
		return false, nil
	}
	rec.Workflow.Set(flag)
	return true, nil
}

func (s vacancies) SetStartPreCall(id string, value models.StartPreCall) error {
	return s.Update(id, map[string]interface{}{"wf_start_pre_call": value})
}

func (s vacancies) SetCalls(id string, value dbmodels.CallSelection) error {
	return s.Update(id, map[string]interface{}{"wf_calls": value})
}

func (s vacancies) SetGroup(id string, groupID *int64) error {
	return s.Update(id, map[string]interface{}{"group_id": groupID})
}

func (s vacancies) SetChannel(id string, channelID *int64) error {
	return s.Update(id, map[string]interface{}{"channel_id": channelID})
}

func (s vacancies) Delete(id string) error {
	if err := s.r.fail("Vacancies.Delete"); err != nil {
		return err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	delete(s.r.VacancyRecs, id)
	keptMembers := s.r.MemberRecs[:0]
	removed := map[string]bool{}
	for _, member := range s.r.MemberRecs {
		if member.VacancyID == id {
			removed[member.ID] = true
			continue
		}
		keptMembers = append(keptMembers, member)
	}
	s.r.MemberRecs = keptMembers
	keptCalls := s.r.CallRecs[:0]
	for _, call := range s.r.CallRecs {
		if !removed[call.VacancyUserID] {
			keptCalls = append(keptCalls, call)
		}
	}
	s.r.CallRecs = keptCalls
	return nil
}

func (s vacancies) filtered(filter vacancyapimodels.VacancyFilter) []dbmodels.Vacancy {
	statuses := map[models.VacancyStatus]bool{}
	for _, status := range filter.Statuses {
		statuses[status] = true
	}
	var list []dbmodels.Vacancy
	for _, rec := range s.r.VacancyRecs {
		if len(statuses) != 0 && !statuses[rec.Status] {
			continue
		}
		if filter.OwnerID != 0 && rec.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Date != "" && rec.Date.Format(vacancyapimodels.DateLayout) != filter.Date {
			continue
		}
		list = append(list, s.r.preloadVacancy(*rec))
	}
	sort.Slice(list, func(a, b int) bool {
		if !list[a].Date.Equal(list[b].Date) {
			return list[a].Date.After(list[b].Date)
		}
		return list[a].CreatedAt.After(list[b].CreatedAt)
	})
	return list
}

func (s vacancies) List(filter vacancyapimodels.VacancyFilter) ([]dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.List"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := s.filtered(filter)
	page, limit := filter.GetPage()
	from := (page - 1) * limit
	if from >= len(list) {
		return []dbmodels.Vacancy{}, nil
	}
	to := from + limit
	if to > len(list) {
		to = len(list)
	}
	return list[from:to], nil
}

func (s vacancies) ListCount(filter vacancyapimodels.VacancyFilter) (int64, error) {
	if err := s.r.fail("Vacancies.ListCount"); err != nil {
		return 0, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return int64(len(s.filtered(filter))), nil
}

func (s vacancies) ListLive() ([]dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.ListLive"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var list []dbmodels.Vacancy
	for _, rec := range s.r.VacancyRecs {
		if rec.Status.IsLive() {
			list = append(list, s.r.preloadVacancy(*rec))
		}
	}
	sortByCreated(list)
	return list, nil
}

func (s vacancies) ListLiveByDates(dates []time.Time) ([]dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.ListLiveByDates"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	days := map[string]bool{}
	for _, date := range dates {
		days[date.Format(vacancyapimodels.DateLayout)] = true
	}
	var list []dbmodels.Vacancy
	for _, rec := range s.r.VacancyRecs {
		if rec.Status.IsLive() && days[rec.Date.Format(vacancyapimodels.DateLayout)] {
			list = append(list, s.r.preloadVacancy(*rec))
		}
	}
	sortByCreated(list)
	return list, nil
}

func (s vacancies) ListLiveUntil(date time.Time) ([]dbmodels.Vacancy, error) {
	if err := s.r.fail("Vacancies.ListLiveUntil"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	until := date.Format(vacancyapimodels.DateLayout)
	var list []dbmodels.Vacancy
	for _, rec := range s.r.VacancyRecs {
		if rec.Status.IsLive() && rec.Date.Format(vacancyapimodels.DateLayout) <= until {
			list = append(list, s.r.preloadVacancy(*rec))
		}
	}
	sortByCreated(list)
	return list, nil
}

func sortByCreated(list []dbmodels.Vacancy) {
	sort.SliceStable(list, func(a, b int) bool {
		return list[a].CreatedAt.Before(list[b].CreatedAt)
	})
}

func int64Ptr(value interface{}) *int64 {
	switch v := value.(type) {
	case *int64:
		if v == nil {
			return nil
		}
		copied := *v
		return &copied
	case int64:
		return &v
	}
	return nil
}

type members struct{ r *Repo }

func (s members) Upsert(vacancyID string, userID int64, status models.ChatMemberStatus) (*dbmodels.VacancyUser, error) {
	if err := s.r.fail("Members.Upsert"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, member := range s.r.MemberRecs {
		if member.VacancyID == vacancyID && member.UserID == userID {
			member.Status = status
			member.UpdatedAt = s.r.Now()
			result := *member
			return &result, nil
		}
	}
	rec := &dbmodels.VacancyUser{
		BaseModel: dbmodels.BaseModel{ID: uuid.NewString(), CreatedAt: s.r.Now(), UpdatedAt: s.r.Now()},
		VacancyID: vacancyID,
		UserID:    userID,
		Status:    status,
	}
	s.r.MemberRecs = append(s.r.MemberRecs, rec)
	result := *rec
	return &result, nil
}

func (s members) Get(vacancyID string, userID int64) (*dbmodels.VacancyUser, error) {
	if err := s.r.fail("Members.Get"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, member := range s.r.MemberRecs {
		if member.VacancyID == vacancyID && member.UserID == userID {
			result := s.r.preloadMember(*member)
			return &result, nil
		}
	}
	return nil, nil
}

func (s members) ListMembers(vacancyID string) ([]dbmodels.VacancyUser, error) {
	return s.ListByStatuses(vacancyID, []models.ChatMemberStatus{models.ChatMemberMember})
}

func (s members) CountMembers(vacancyID string) (int64, error) {
	list, err := s.ListMembers(vacancyID)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s members) ListByStatuses(vacancyID string, statuses []models.ChatMemberStatus) ([]dbmodels.VacancyUser, error) {
	if err := s.r.fail("Members.List"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.VacancyUser{}
	for _, member := range s.r.MemberRecs {
		if member.VacancyID != vacancyID {
			continue
		}
		for _, status := range statuses {
			if member.Status == status {
				list = append(list, s.r.preloadMember(*member))
				break
			}
		}
	}
	return list, nil
}

func (s members) ListAll(vacancyID string) ([]dbmodels.VacancyUser, error) {
	if err := s.r.fail("Members.List"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.VacancyUser{}
	for _, member := range s.r.MemberRecs {
		if member.VacancyID == vacancyID {
			list = append(list, s.r.preloadMember(*member))
		}
	}
	return list, nil
}

type calls struct{ r *Repo }

func (s calls) CreateIfAbsent(vacancyUserID string, callType models.CallType, status models.CallStatus) (bool, error) {
	if err := s.r.fail("Calls.CreateIfAbsent"); err != nil {
		return false, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, call := range s.r.CallRecs {
		if call.VacancyUserID == vacancyUserID && call.CallType == callType {
			return false, nil
		}
	}
	s.r.CallRecs = append(s.r.CallRecs, &dbmodels.VacancyUserCall{
		BaseModel:     dbmodels.BaseModel{ID: uuid.NewString(), CreatedAt: s.r.Now(), UpdatedAt: s.r.Now()},
		VacancyUserID: vacancyUserID,
		CallType:      callType,
		Status:        status,
	})
	return true, nil
}

func (s calls) Get(vacancyUserID string, callType models.CallType) (*dbmodels.VacancyUserCall, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, call := range s.r.CallRecs {
		if call.VacancyUserID == vacancyUserID && call.CallType == callType {
			result := *call
			return &result, nil
		}
	}
	return nil, nil
}

func (s calls) ListByVacancy(vacancyID string, callType models.CallType) ([]dbmodels.VacancyUserCall, error) {
	if err := s.r.fail("Calls.ListByVacancy"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.VacancyUserCall{}
	for _, call := range s.r.CallRecs {
		if call.CallType != callType {
			continue
		}
		member := s.r.memberByID(call.VacancyUserID)
		if member == nil || member.VacancyID != vacancyID {
			continue
		}
		result := *call
		preloaded := s.r.preloadMember(*member)
		result.VacancyUser = &preloaded
		list = append(list, result)
	}
	return list, nil
}

func (s calls) SetStatus(ids []string, callType models.CallType, status models.CallStatus) (int64, error) {
	if err := s.r.fail("Calls.SetStatus"); err != nil {
		return 0, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	var updated int64
	for _, call := range s.r.CallRecs {
		if call.CallType == callType && wanted[call.VacancyUserID] {
			call.Status = status
			updated++
		}
	}
	return updated, nil
}

type history struct{ r *Repo }

func (s history) Create(rec dbmodels.VacancyStatusHistory) (string, error) {
	if err := s.r.fail("History.Create"); err != nil {
		return "", err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.r.Now()
	s.r.HistoryRecs = append(s.r.HistoryRecs, rec)
	return rec.ID, nil
}

func (s history) List(vacancyID string) ([]dbmodels.VacancyStatusHistory, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.VacancyStatusHistory{}
	for _, rec := range s.r.HistoryRecs {
		if rec.VacancyID == vacancyID {
			list = append(list, rec)
		}
	}
	return list, nil
}

type groups struct{ r *Repo }

func (s groups) Upsert(rec dbmodels.Group) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if existing, ok := s.r.GroupRecs[rec.ID]; ok {
		existing.Title = rec.Title
		existing.InviteLink = rec.InviteLink
		return nil
	}
	if rec.Status == "" {
		rec.Status = models.GroupStatusAvailable
	}
	s.r.GroupRecs[rec.ID] = &rec
	return nil
}

func (s groups) GetByID(id int64) (*dbmodels.Group, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.GroupRecs[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (s groups) ListAvailable() ([]dbmodels.Group, error) {
	if err := s.r.fail("Groups.ListAvailable"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.Group{}
	for _, rec := range s.r.GroupRecs {
		if rec.Status == models.GroupStatusAvailable && rec.InviteLink != "" {
			list = append(list, *rec)
		}
	}
	sort.Slice(list, func(a, b int) bool { return list[a].ID < list[b].ID })
	return list, nil
}

func (s groups) Lease(id int64) (bool, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.GroupRecs[id]
	if !ok || rec.Status != models.GroupStatusAvailable || rec.InviteLink == "" {
		return false, nil
	}
	rec.Status = models.GroupStatusProcess
	return true, nil
}

func (s groups) LeaseAny() (*dbmodels.Group, error) {
	list, err := s.ListAvailable()
	if err != nil {
		return nil, err
	}
	for _, group := range list {
		leased, err := s.Lease(group.ID)
		if err != nil {
			return nil, err
		}
		if leased {
			group.Status = models.GroupStatusProcess
			return &group, nil
		}
	}
	return nil, nil
}

func (s groups) Release(id int64) error {
	if err := s.r.fail("Groups.Release"); err != nil {
		return err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if rec, ok := s.r.GroupRecs[id]; ok {
		rec.Status = models.GroupStatusAvailable
	}
	return nil
}

type channels struct{ r *Repo }

func (s channels) Upsert(rec dbmodels.Channel) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if existing, ok := s.r.ChannelRecs[rec.ID]; ok {
		rec.City = existing.City
	}
	s.r.ChannelRecs[rec.ID] = &rec
	return nil
}

func (s channels) GetByID(id int64) (*dbmodels.Channel, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.ChannelRecs[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (s channels) FindForCity(city string) (*dbmodels.Channel, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var list []dbmodels.Channel
	for _, rec := range s.r.ChannelRecs {
		if !rec.IsActive || !rec.HasBotAdministrator || rec.InviteLink == "" {
			continue
		}
		if city != "" && rec.City != city {
			continue
		}
		list = append(list, *rec)
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(a, b int) bool { return list[a].ID < list[b].ID })
	return &list[0], nil
}

type messages struct{ r *Repo }

func (s messages) CreateChannelMessage(rec dbmodels.ChannelMessage) (string, error) {
	if err := s.r.fail("Messages.CreateChannelMessage"); err != nil {
		return "", err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.r.Now()
	if rec.Status == "" {
		rec.Status = models.MessageStatusReceived
	}
	s.r.ChannelMessages = append(s.r.ChannelMessages, &rec)
	return rec.ID, nil
}

func (s messages) LastChannelMessage(vacancyID string) (*dbmodels.ChannelMessage, error) {
	if err := s.r.fail("Messages.LastChannelMessage"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	var found *dbmodels.ChannelMessage
	for _, rec := range s.r.ChannelMessages {
		if rec.VacancyID == nil || *rec.VacancyID != vacancyID || rec.Status != models.MessageStatusReceived {
			continue
		}
		if found == nil || rec.MessageID > found.MessageID {
			found = rec
		}
	}
	if found == nil {
		return nil, nil
	}
	result := *found
	return &result, nil
}

func (s messages) ListChannelMessages(vacancyID string) ([]dbmodels.ChannelMessage, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.ChannelMessage{}
	for _, rec := range s.r.ChannelMessages {
		if rec.VacancyID != nil && *rec.VacancyID == vacancyID && rec.Status != models.MessageStatusDeleted {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s messages) SetChannelMessageStatus(id string, status models.MessageStatus) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, rec := range s.r.ChannelMessages {
		if rec.ID == id {
			rec.Status = status
			return nil
		}
	}
	return errors.New("запись не найдена")
}

func (s messages) CreateGroupMessage(rec dbmodels.GroupMessage) (string, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.r.Now()
	if rec.Status == "" {
		rec.Status = models.MessageStatusReceived
	}
	s.r.GroupMessages = append(s.r.GroupMessages, &rec)
	return rec.ID, nil
}

func (s messages) ListGroupMessages(vacancyID string) ([]dbmodels.GroupMessage, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.GroupMessage{}
	for _, rec := range s.r.GroupMessages {
		if rec.VacancyID != nil && *rec.VacancyID == vacancyID && rec.Status != models.MessageStatusDeleted {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s messages) SetGroupMessageStatus(id string, status models.MessageStatus) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, rec := range s.r.GroupMessages {
		if rec.ID == id {
			rec.Status = status
			return nil
		}
	}
	return errors.New("запись не найдена")
}

type usersInGroups struct{ r *Repo }

func (s usersInGroups) Upsert(groupID, userID int64, status models.ChatMemberStatus) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, rec := range s.r.UserInGroupRecs {
		if rec.GroupID == groupID && rec.UserID == userID {
			rec.Status = status
			return nil
		}
	}
	s.r.UserInGroupRecs = append(s.r.UserInGroupRecs, &dbmodels.UserInGroup{
		BaseModel: dbmodels.BaseModel{ID: uuid.NewString(), CreatedAt: s.r.Now()},
		GroupID:   groupID,
		UserID:    userID,
		Status:    status,
	})
	return nil
}

func (s usersInGroups) Delete(groupID, userID int64) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	kept := s.r.UserInGroupRecs[:0]
	for _, rec := range s.r.UserInGroupRecs {
		if rec.GroupID == groupID && rec.UserID == userID {
			continue
		}
		kept = append(kept, rec)
	}
	s.r.UserInGroupRecs = kept
	return nil
}

func (s usersInGroups) ListByGroup(groupID int64) ([]dbmodels.UserInGroup, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.UserInGroup{}
	for _, rec := range s.r.UserInGroupRecs {
		if rec.GroupID == groupID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s usersInGroups) DeleteByGroup(groupID int64) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	kept := s.r.UserInGroupRecs[:0]
	for _, rec := range s.r.UserInGroupRecs {
		if rec.GroupID != groupID {
			kept = append(kept, rec)
		}
	}
	s.r.UserInGroupRecs = kept
	return nil
}

type users struct{ r *Repo }

func (s users) GetByID(id int64) (*dbmodels.User, error) {
	if err := s.r.fail("Users.GetByID"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.UserRecs[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (s users) UpsertFromTelegram(rec dbmodels.User) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if existing, ok := s.r.UserRecs[rec.ID]; ok {
		existing.Username = rec.Username
		existing.FullName = rec.FullName
		existing.IsBot = rec.IsBot
		return nil
	}
	rec.IsActive = true
	rec.IsStaff = false
	s.r.UserRecs[rec.ID] = &rec
	return nil
}

func (s users) ListStaff() ([]dbmodels.User, error) {
	if err := s.r.fail("Users.ListStaff"); err != nil {
		return nil, err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.User{}
	for _, rec := range s.r.UserRecs {
		if rec.IsStaff && rec.IsActive {
			list = append(list, *rec)
		}
	}
	sort.Slice(list, func(a, b int) bool { return list[a].ID < list[b].ID })
	return list, nil
}

func (s users) SetStaff(id int64, isStaff bool) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec, ok := s.r.UserRecs[id]
	if !ok {
		return errors.New("запись не найдена")
	}
	rec.IsStaff = isStaff
	return nil
}

type feedback struct{ r *Repo }

func (s feedback) Create(rec dbmodels.UserFeedback) (string, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.r.Now()
	s.r.FeedbackRecs = append(s.r.FeedbackRecs, rec)
	return rec.ID, nil
}

type payments struct{ r *Repo }

func (s payments) Create(rec dbmodels.Payment) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, existing := range s.r.PaymentRecs {
		if existing.ProviderChargeID == rec.ProviderChargeID {
			return "", errors.New("платеж уже существует")
		}
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.r.Now()
	s.r.PaymentRecs = append(s.r.PaymentRecs, &rec)
	return rec.ID, nil
}

func (s payments) GetByProviderChargeID(chargeID string) (*dbmodels.Payment, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, rec := range s.r.PaymentRecs {
		if rec.ProviderChargeID == chargeID {
			result := *rec
			return &result, nil
		}
	}
	return nil, nil
}

func (s payments) ListByVacancy(vacancyID string) ([]dbmodels.Payment, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	list := []dbmodels.Payment{}
	for _, rec := range s.r.PaymentRecs {
		if rec.VacancyID == vacancyID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s payments) SetReceiptKey(id, key string) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	for _, rec := range s.r.PaymentRecs {
		if rec.ID == id {
			rec.ReceiptKey = key
			return nil
		}
	}
	return errors.New("запись не найдена")
}

func (s payments) CreatePreCheckoutLog(rec dbmodels.PreCheckoutLog) (string, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.r.Now()
	s.r.PreCheckoutLogs = append(s.r.PreCheckoutLogs, rec)
	return rec.ID, nil
}
