package messagestore

import (
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	CreateChannelMessage(rec dbmodels.ChannelMessage) (id string, err error)
	// LastChannelMessage последний не удаленный пост вакансии в канале
	LastChannelMessage(vacancyID string) (rec *dbmodels.ChannelMessage, err error)
	ListChannelMessages(vacancyID string) (list []dbmodels.ChannelMessage, err error)
	SetChannelMessageStatus(id string, status models.MessageStatus) error
	CreateGroupMessage(rec dbmodels.GroupMessage) (id string, err error)
	ListGroupMessages(vacancyID string) (list []dbmodels.GroupMessage, err error)
	SetGroupMessageStatus(id string, status models.MessageStatus) error
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) CreateChannelMessage(rec dbmodels.ChannelMessage) (id string, err error) {
	if rec.Status == "" {
		rec.Status = models.MessageStatusReceived
	}
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) LastChannelMessage(vacancyID string) (*dbmodels.ChannelMessage, error) {
	rec := dbmodels.ChannelMessage{}
	err := i.db.
		Where("vacancy_id = ?", vacancyID).
		Where("status = ?", models.MessageStatusReceived).
		Order("message_id desc").
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

// ListChannelMessages сообщения, которые еще не удалены из канала
func (i impl) ListChannelMessages(vacancyID string) (list []dbmodels.ChannelMessage, err error) {
	list = []dbmodels.ChannelMessage{}
	err = i.db.
		Where("vacancy_id = ?", vacancyID).
		Where("status <> ?", models.MessageStatusDeleted).
		Order("message_id").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SetChannelMessageStatus(id string, status models.MessageStatus) error {
	tx := i.db.
		Model(&dbmodels.ChannelMessage{}).
		Where("id = ?", id).
		Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}

func (i impl) CreateGroupMessage(rec dbmodels.GroupMessage) (id string, err error) {
	if rec.Status == "" {
		rec.Status = models.MessageStatusReceived
	}
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListGroupMessages(vacancyID string) (list []dbmodels.GroupMessage, err error) {
	list = []dbmodels.GroupMessage{}
	err = i.db.
		Where("vacancy_id = ?", vacancyID).
		Where("status <> ?", models.MessageStatusDeleted).
		Order("message_id").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SetGroupMessageStatus(id string, status models.MessageStatus) error {
	tx := i.db.
		Model(&dbmodels.GroupMessage{}).
		Where("id = ?", id).
		Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("запись не найдена")
	}
	return nil
}
