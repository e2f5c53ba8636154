package vacancystore

import (
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	dbmodels "shift-tools-backend/models/db"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Provider interface {
	Create(rec dbmodels.Vacancy) (id string, err error)
	GetByID(id string) (rec *dbmodels.Vacancy, err error)
	GetByIDForUpdate(id string) (rec *dbmodels.Vacancy, err error)
	GetLiveByGroup(groupID int64) (rec *dbmodels.Vacancy, err error)
	Update(id string, updMap map[string]interface{}) error
	UpdateStatus(id string, from, to models.VacancyStatus) (updated bool, err error)
	SetFlag(id string, flag dbmodels.WorkflowFlag) (claimed bool, err error)
	SetStartPreCall(id string, value models.StartPreCall) error
	SetCalls(id string, calls dbmodels.CallSelection) error
	SetGroup(id string, groupID *int64) error
	SetChannel(id string, channelID *int64) error
	Delete(id string) error
	List(filter vacancyapimodels.VacancyFilter) (list []dbmodels.Vacancy, err error)
	ListCount(filter vacancyapimodels.VacancyFilter) (count int64, err error)
	ListLive() (list []dbmodels.Vacancy, err error)
	ListLiveByDates(dates []time.Time) (list []dbmodels.Vacancy, err error)
	// ListLiveUntil живые вакансии со сменой не позже date, включая пропущенные планировщиком
	ListLiveUntil(date time.Time) (list []dbmodels.Vacancy, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Vacancy) (id string, err error) {
	err = i.db.Omit(clause.Associations).
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Vacancy, error) {
	rec := dbmodels.Vacancy{}
	err := i.db.
		Model(&dbmodels.Vacancy{}).
		Where("id = ?", id).
		Preload("Owner").
		Preload("Group").
		Preload("Channel").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetByIDForUpdate блокирует строку вакансии до конца транзакции
func (i impl) GetByIDForUpdate(id string) (*dbmodels.Vacancy, error) {
	rec := dbmodels.Vacancy{}
	err := i.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) GetLiveByGroup(groupID int64) (*dbmodels.Vacancy, error) {
	rec := dbmodels.Vacancy{}
	err := i.db.
		Model(&dbmodels.Vacancy{}).
		Where("group_id = ?", groupID).
		Where("status in (?)", models.LiveVacancyStatuses).
		Preload("Owner").
		Preload("Group").
		Preload("Channel").
		Order("created_at desc").
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.Vacancy{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

// UpdateStatus меняет статус только если текущий статус равен from
func (i impl) UpdateStatus(id string, from, to models.VacancyStatus) (bool, error) {
	tx := i.db.
		Model(&dbmodels.Vacancy{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Update("status", to)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// SetFlag взводит защелку. claimed == true только у того, кто взвел ее первым
func (i impl) SetFlag(id string, flag dbmodels.WorkflowFlag) (bool, error) {
	if !flag.IsValid() {
		return false, errors.Errorf("неизвестный флаг %v", flag)
	}
	tx := i.db.
		Model(&dbmodels.Vacancy{}).
		Where("id = ?", id).
		Where(string(flag)+" = ?", false).
		Update(string(flag), true)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (i impl) SetStartPreCall(id string, value models.StartPreCall) error {
	return i.Update(id, map[string]interface{}{"wf_start_pre_call": value})
}

func (i impl) SetCalls(id string, calls dbmodels.CallSelection) error {
	return i.Update(id, map[string]interface{}{"wf_calls": calls})
}

func (i impl) SetGroup(id string, groupID *int64) error {
	return i.Update(id, map[string]interface{}{"group_id": groupID})
}

func (i impl) SetChannel(id string, channelID *int64) error {
	return i.Update(id, map[string]interface{}{"channel_id": channelID})
}

func (i impl) Delete(id string) error {
	rec := dbmodels.Vacancy{
		BaseModel: dbmodels.BaseModel{ID: id},
	}
	err := i.db.
		Select(clause.Associations).
		Delete(&rec).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) List(filter vacancyapimodels.VacancyFilter) (list []dbmodels.Vacancy, err error) {
	tx := i.db.
		Model(&dbmodels.Vacancy{}).
		Preload("Owner")
	i.addFilter(tx, filter)
	page, limit := filter.GetPage()
	i.setPage(tx, page, limit)
	err = tx.
		Order("date desc").
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListCount(filter vacancyapimodels.VacancyFilter) (count int64, err error) {
	tx := i.db.Model(&dbmodels.Vacancy{})
	i.addFilter(tx, filter)
	err = tx.Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (i impl) ListLive() (list []dbmodels.Vacancy, err error) {
	err = i.db.
		Model(&dbmodels.Vacancy{}).
		Where("status in (?)", models.LiveVacancyStatuses).
		Preload("Owner").
		Preload("Group").
		Preload("Channel").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListLiveByDates(dates []time.Time) (list []dbmodels.Vacancy, err error) {
	if len(dates) == 0 {
		return nil, nil
	}
	values := make([]string, 0, len(dates))
	for _, date := range dates {
		values = append(values, date.Format(vacancyapimodels.DateLayout))
	}
	err = i.db.
		Model(&dbmodels.Vacancy{}).
		Where("status in (?)", models.LiveVacancyStatuses).
		Where("date in (?)", values).
		Preload("Owner").
		Preload("Group").
		Preload("Channel").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListLiveUntil(date time.Time) (list []dbmodels.Vacancy, err error) {
	err = i.db.
		Model(&dbmodels.Vacancy{}).
		Where("status in (?)", models.LiveVacancyStatuses).
		Where("date <= ?", date.Format(vacancyapimodels.DateLayout)).
		Preload("Owner").
		Preload("Group").
		Preload("Channel").
		Order("date").
		Order("created_at").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) addFilter(tx *gorm.DB, filter vacancyapimodels.VacancyFilter) {
	if len(filter.Statuses) != 0 {
		tx.Where("status in (?)", filter.Statuses)
	}
	if filter.OwnerID != 0 {
		tx.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Date != "" {
		tx.Where("date = ?", filter.Date)
	}
}

func (i impl) setPage(tx *gorm.DB, page, limit int) {
	offset := (page - 1) * limit
	tx.Limit(limit).Offset(offset)
}
