package payment

import (
	"context"
	"fmt"
	pdfexport "shift-tools-backend/lib/export/pdf"
	filestorage "shift-tools-backend/lib/file-storage"
	"shift-tools-backend/lib/repository"
	tgclient "shift-tools-backend/lib/telegram/client"
	"shift-tools-backend/lib/utils/helpers"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoPayment       = errors.New("сообщение не содержит платежа")
	ErrPaymentNotFound = errors.New("платеж не найден")
	ErrVacancyNotFound = vacancystatus.ErrVacancyNotFound
)

// ответы пользователю при отказе в оплате
const (
	reasonInvalidPayload = "Некоректний рахунок"
	reasonNoVacancy      = "Вакансію не знайдено"
	reasonAlreadyPaid    = "Рахунок вже оплачено"
	reasonWrongAmount    = "Сума не збігається з рахунком"
)

type Provider interface {
	// PreCheckout подтверждает оплату, только если счет еще не оплачен
	PreCheckout(ctx context.Context, query tgapimodels.PreCheckoutQuery) (approved bool, err error)
	// SuccessfulPayment фиксирует платеж и отмечает вакансию оплаченной. Повторное уведомление игнорируется
	SuccessfulPayment(ctx context.Context, msg tgapimodels.Message) error
	ListByVacancy(vacancyID string) ([]dbmodels.Payment, error)
	Receipt(ctx context.Context, vacancyID, paymentID string) ([]byte, error)
}

type Config struct {
	FontDir     string
	ServiceName string
	Now         func() time.Time
}

var Instance Provider

func NewHandler(repo repository.Provider, client tgclient.Provider, storage filestorage.Provider, cfg Config) {
	Instance = NewInstance(repo, client, storage, cfg)
}

func NewInstance(repo repository.Provider, client tgclient.Provider, storage filestorage.Provider, cfg Config) Provider {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &impl{
		repo:    repo,
		client:  client,
		storage: storage,
		cfg:     cfg,
	}
}

type impl struct {
	repo    repository.Provider
	client  tgclient.Provider
	storage filestorage.Provider
	cfg     Config
}

func (i impl) getLogger(vacancyID string, userID int64) *log.Entry {
	logger := log.NewEntry(log.StandardLogger())
	if vacancyID != "" {
		logger = logger.WithField("vacancy_id", vacancyID)
	}
	if userID != 0 {
		logger = logger.WithField("user_id", userID)
	}
	return logger
}

func (i impl) PreCheckout(ctx context.Context, query tgapimodels.PreCheckoutQuery) (bool, error) {
	vacancyID, reason, err := i.checkInvoice(query)
	logger := i.getLogger(vacancyID, query.From.ID)
	if err != nil {
		// без ответа Telegram отменит оплату по таймауту
		logger.WithError(err).Error("ошибка проверки счета")
		reason = reasonNoVacancy
	}
	approved := reason == ""
	answerErr := i.client.AnswerPreCheckoutQuery(ctx, tgapimodels.AnswerPreCheckoutQueryRequest{
		PreCheckoutQueryID: query.ID,
		OK:                 approved,
		ErrorMessage:       reason,
	})
	_, logErr := i.repo.Payments().CreatePreCheckoutLog(dbmodels.PreCheckoutLog{
		QueryID:   query.ID,
		UserID:    query.From.ID,
		VacancyID: vacancyID,
		Amount:    query.TotalAmount,
		Currency:  query.Currency,
		Payload:   query.InvoicePayload,
		Approved:  approved,
		Reason:    reason,
	})
	if logErr != nil {
		logger.WithError(logErr).Error("ошибка сохранения журнала pre-checkout")
	}
	if answerErr != nil {
		return false, errors.Wrap(answerErr, "ошибка ответа на pre-checkout")
	}
	logger.
		WithField("approved", approved).
		WithField("reason", reason).
		Info("обработан pre-checkout")
	return approved, nil
}

func (i impl) checkInvoice(query tgapimodels.PreCheckoutQuery) (vacancyID, reason string, err error) {
	vacancyID, amount, err := vacancycall.ParseInvoicePayload(query.InvoicePayload)
	if err != nil {
		return "", reasonInvalidPayload, nil
	}
	vacancy, err := i.repo.Vacancies().GetByID(vacancyID)
	if err != nil {
		return vacancyID, "", errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return vacancyID, reasonNoVacancy, nil
	}
	if vacancy.Workflow.IsPaid {
		return vacancyID, reasonAlreadyPaid, nil
	}
	if query.TotalAmount != amount*100 {
		return vacancyID, reasonWrongAmount, nil
	}
	return vacancyID, "", nil
}

func (i impl) SuccessfulPayment(ctx context.Context, msg tgapimodels.Message) error {
	sp := msg.SuccessfulPayment
	if sp == nil {
		return ErrNoPayment
	}
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	existing, err := i.repo.Payments().GetByProviderChargeID(sp.ProviderPaymentChargeID)
	if err != nil {
		return errors.Wrap(err, "ошибка поиска платежа")
	}
	if existing != nil {
		i.getLogger(existing.VacancyID, userID).Info("повторное уведомление об оплате пропущено")
		return nil
	}
	vacancyID, _, err := vacancycall.ParseInvoicePayload(sp.InvoicePayload)
	if err != nil {
		return err
	}
	logger := i.getLogger(vacancyID, userID)
	rec := dbmodels.Payment{
		VacancyID:        vacancyID,
		UserID:           userID,
		Amount:           sp.TotalAmount,
		Currency:         sp.Currency,
		InvoicePayload:   sp.InvoicePayload,
		TelegramChargeID: sp.TelegramPaymentChargeID,
		ProviderChargeID: sp.ProviderPaymentChargeID,
	}
	var vacancy *dbmodels.Vacancy
	err = i.repo.Transaction(func(tx repository.Provider) error {
		// платеж сохраняется даже для удаленной вакансии: деньги уже списаны
		id, err := tx.Payments().Create(rec)
		if err != nil {
			return errors.Wrap(err, "ошибка сохранения платежа")
		}
		rec.ID = id
		vacancy, err = tx.Vacancies().GetByIDForUpdate(vacancyID)
		if err != nil {
			return errors.Wrap(err, "ошибка получения вакансии")
		}
		if vacancy == nil {
			return nil
		}
		if _, err = tx.Vacancies().SetFlag(vacancyID, dbmodels.FlagIsPaid); err != nil {
			return errors.Wrap(err, "ошибка установки признака оплаты")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if vacancy == nil {
		logger.Warn("оплата по несуществующей вакансии")
		return nil
	}
	logger.
		WithField("amount", rec.Amount).
		WithField("payment_id", rec.ID).
		Info("вакансия оплачена")
	if _, err = i.storeReceipt(ctx, *vacancy, rec, msg.From, helpers.ParseUnixTime(msg.Date)); err != nil {
		logger.WithError(err).Error("ошибка формирования квитанции")
	}
	return nil
}

func receiptKey(vacancyID, paymentID string) string {
	return fmt.Sprintf("receipts/%s/%s.pdf", vacancyID, paymentID)
}

func (i impl) storeReceipt(ctx context.Context, vacancy dbmodels.Vacancy, rec dbmodels.Payment, payer *tgapimodels.User, paidAt time.Time) ([]byte, error) {
	data := pdfexport.ReceiptData{
		PaymentID:   rec.ID,
		VacancyID:   vacancy.ID,
		Address:     vacancy.Address,
		ShiftDate:   vacancy.Date,
		Workers:     len(vacancy.Workflow.Calls[models.CallTypeAfterStart]),
		Amount:      rec.Amount,
		Currency:    rec.Currency,
		ChargeID:    rec.ProviderChargeID,
		PaidAt:      paidAt,
		ServiceName: i.cfg.ServiceName,
	}
	if data.PaidAt.IsZero() {
		data.PaidAt = i.cfg.Now()
	}
	if payer != nil {
		data.PayerName = payer.FullName()
	} else if vacancy.Owner != nil {
		data.PayerName = vacancy.Owner.DisplayName()
	}
	body, err := pdfexport.GenerateReceipt(i.cfg.FontDir, data)
	if err != nil {
		return nil, err
	}
	if i.storage == nil {
		return body, nil
	}
	key := receiptKey(vacancy.ID, rec.ID)
	if err = i.storage.Upload(ctx, key, body, "application/pdf"); err != nil {
		return body, err
	}
	if err = i.repo.Payments().SetReceiptKey(rec.ID, key); err != nil {
		return body, errors.Wrap(err, "ошибка сохранения ссылки на квитанцию")
	}
	return body, nil
}

func (i impl) ListByVacancy(vacancyID string) ([]dbmodels.Payment, error) {
	list, err := i.repo.Payments().ListByVacancy(vacancyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения платежей")
	}
	return list, nil
}

func (i impl) Receipt(ctx context.Context, vacancyID, paymentID string) ([]byte, error) {
	vacancy, err := i.repo.Vacancies().GetByID(vacancyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return nil, ErrVacancyNotFound
	}
	list, err := i.ListByVacancy(vacancyID)
	if err != nil {
		return nil, err
	}
	for _, rec := range list {
		if rec.ID != paymentID {
			continue
		}
		if rec.ReceiptKey != "" && i.storage != nil {
			body, err := i.storage.Get(ctx, rec.ReceiptKey)
			if err == nil {
				return body, nil
			}
			i.getLogger(vacancyID, 0).WithError(err).Warn("квитанция не найдена в хранилище, формируем заново")
		}
		return i.storeReceipt(ctx, *vacancy, rec, nil, rec.CreatedAt)
	}
	return nil, ErrPaymentNotFound
}
