package vacancyreport

import (
	"bytes"
	"context"
	"fmt"
	xlsexport "shift-tools-backend/lib/export/xls"
	filestorage "shift-tools-backend/lib/file-storage"
	"shift-tools-backend/lib/repository"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrVacancyNotFound = vacancystatus.ErrVacancyNotFound
	ErrNoStorage       = errors.New("файловое хранилище не настроено")
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Provider interface {
	// Rows явка всех участников вакансии, включая вышедших из группы
	Rows(vacancyID string) (vacancyapimodels.VacancyView, []vacancyapimodels.AttendanceRow, error)
	Attendance(vacancyID string) (*bytes.Buffer, error)
	// Archive сохраняет отчет в файловое хранилище и возвращает ключ объекта
	Archive(ctx context.Context, vacancyID string) (key string, err error)
}

var Instance Provider

func NewHandler(repo repository.Provider, exporter xlsexport.Provider, storage filestorage.Provider) {
	Instance = NewInstance(repo, exporter, storage)
}

func NewInstance(repo repository.Provider, exporter xlsexport.Provider, storage filestorage.Provider) Provider {
	return &impl{
		repo:     repo,
		exporter: exporter,
		storage:  storage,
	}
}

type impl struct {
	repo     repository.Provider
	exporter xlsexport.Provider
	storage  filestorage.Provider
}

func (i impl) getLogger(vacancyID string) *log.Entry {
	return log.WithField("vacancy_id", vacancyID)
}

func (i impl) Rows(vacancyID string) (vacancyapimodels.VacancyView, []vacancyapimodels.AttendanceRow, error) {
	vacancy, err := i.repo.Vacancies().GetByID(vacancyID)
	if err != nil {
		return vacancyapimodels.VacancyView{}, nil, errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return vacancyapimodels.VacancyView{}, nil, ErrVacancyNotFound
	}
	members, err := i.repo.Members().ListAll(vacancyID)
	if err != nil {
		return vacancyapimodels.VacancyView{}, nil, errors.Wrap(err, "ошибка получения участников вакансии")
	}
	statuses := map[models.CallType]map[string]models.CallStatus{}
	for _, callType := range []models.CallType{models.CallTypeBeforeStart, models.CallTypeStart, models.CallTypeAfterStart} {
		list, err := i.repo.Calls().ListByVacancy(vacancyID, callType)
		if err != nil {
			return vacancyapimodels.VacancyView{}, nil, errors.Wrapf(err, "ошибка получения переклички %s", callType)
		}
		byMember := make(map[string]models.CallStatus, len(list))
		for _, call := range list {
			byMember[call.VacancyUserID] = call.Status
		}
		statuses[callType] = byMember
	}
	var active int64
	rows := make([]vacancyapimodels.AttendanceRow, 0, len(members))
	for _, member := range members {
		if member.Status == models.ChatMemberMember {
			active++
		}
		row := vacancyapimodels.AttendanceRow{
			UserID:       member.UserID,
			MemberStatus: member.Status,
			BeforeStart:  statuses[models.CallTypeBeforeStart][member.ID],
			Start:        statuses[models.CallTypeStart][member.ID],
			AfterStart:   statuses[models.CallTypeAfterStart][member.ID],
		}
		if member.User != nil {
			row.FullName = member.User.DisplayName()
			row.Username = member.User.Username
			row.Phone = member.User.Phone
		}
		rows = append(rows, row)
	}
	return vacancy.ToModel(active), rows, nil
}

func (i impl) Attendance(vacancyID string) (*bytes.Buffer, error) {
	view, rows, err := i.Rows(vacancyID)
	if err != nil {
		return nil, err
	}
	buf, err := i.exporter.ExportAttendance(view, rows)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования отчета")
	}
	return buf, nil
}

func (i impl) Archive(ctx context.Context, vacancyID string) (string, error) {
	if i.storage == nil {
		return "", ErrNoStorage
	}
	buf, err := i.Attendance(vacancyID)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("reports/%s/attendance-%s.xlsx", vacancyID, uuid.NewString())
	if err = i.storage.Upload(ctx, key, buf.Bytes(), xlsxContentType); err != nil {
		return "", err
	}
	i.getLogger(vacancyID).WithField("key", key).Info("отчет о явке сохранен")
	return key, nil
}
