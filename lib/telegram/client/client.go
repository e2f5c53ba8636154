package tgclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	tgapimodels "shift-tools-backend/models/api/telegram"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Provider interface {
	//https://core.telegram.org/bots/api#sendmessage
	SendMessage(ctx context.Context, req tgapimodels.SendMessageRequest) (*tgapimodels.Message, error)
	//https://core.telegram.org/bots/api#sendphoto
	SendPhoto(ctx context.Context, req tgapimodels.SendPhotoRequest) (*tgapimodels.Message, error)
	//https://core.telegram.org/bots/api#sendinvoice
	SendInvoice(ctx context.Context, req tgapimodels.SendInvoiceRequest) (*tgapimodels.Message, error)
	//https://core.telegram.org/bots/api#editmessagetext
	EditMessageText(ctx context.Context, req tgapimodels.EditMessageTextRequest) (*tgapimodels.Message, error)
	//https://core.telegram.org/bots/api#editmessagecaption
	EditMessageCaption(ctx context.Context, req tgapimodels.EditMessageCaptionRequest) (*tgapimodels.Message, error)
	//https://core.telegram.org/bots/api#editmessagereplymarkup
	EditMessageReplyMarkup(ctx context.Context, req tgapimodels.EditMessageReplyMarkupRequest) (*tgapimodels.Message, error)
	//https://core.telegram.org/bots/api#deletemessage
	DeleteMessage(ctx context.Context, chatID, messageID int64) error

	//https://core.telegram.org/bots/api#approvechatjoinrequest
	ApproveChatJoinRequest(ctx context.Context, chatID, userID int64) error
	//https://core.telegram.org/bots/api#declinechatjoinrequest
	DeclineChatJoinRequest(ctx context.Context, chatID, userID int64) error
	//https://core.telegram.org/bots/api#banchatmember
	BanChatMember(ctx context.Context, chatID, userID int64) error
	//https://core.telegram.org/bots/api#unbanchatmember
	UnbanChatMember(ctx context.Context, chatID, userID int64) error
	//https://core.telegram.org/bots/api#setchatpermissions
	SetChatPermissions(ctx context.Context, chatID int64, permissions tgapimodels.ChatPermissions) error
	//https://core.telegram.org/bots/api#restrictchatmember
	RestrictChatMember(ctx context.Context, chatID, userID int64, permissions tgapimodels.ChatPermissions) error
	//https://core.telegram.org/bots/api#promotechatmember
	PromoteChatMember(ctx context.Context, req tgapimodels.PromoteChatMemberRequest) error
	//https://core.telegram.org/bots/api#setchatadministratorcustomtitle
	SetChatAdministratorCustomTitle(ctx context.Context, chatID, userID int64, title string) error
	//https://core.telegram.org/bots/api#createchatinvitelink
	CreateChatInviteLink(ctx context.Context, req tgapimodels.CreateChatInviteLinkRequest) (*tgapimodels.ChatInviteLink, error)
	//https://core.telegram.org/bots/api#exportchatinvitelink
	ExportChatInviteLink(ctx context.Context, chatID int64) (string, error)

	//https://core.telegram.org/bots/api#answerprecheckoutquery
	AnswerPreCheckoutQuery(ctx context.Context, req tgapimodels.AnswerPreCheckoutQueryRequest) error
	//https://core.telegram.org/bots/api#answercallbackquery
	AnswerCallbackQuery(ctx context.Context, req tgapimodels.AnswerCallbackQueryRequest) error
}

type Config struct {
	Host          string
	Token         string
	Timeout       time.Duration
	MaxAttempts   int
	RatePerSecond float64
}

const (
	defaultHost       = "https://api.telegram.org"
	methodPathPattern = "/bot%s/%s"
	maxRetryAfter     = 10 * time.Second
	baseBackoff       = 500 * time.Millisecond
)

var Instance Provider

func NewProvider(cfg Config) {
	Instance = NewInstance(cfg)
}

func NewInstance(cfg Config) Provider {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &impl{
		host:        strings.TrimRight(cfg.Host, "/"),
		token:       cfg.Token,
		maxAttempts: cfg.MaxAttempts,
		limiter:     rate.NewLimiter(limit, 1),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		sleep:       sleepCtx,
	}
}

type impl struct {
	host        string
	token       string
	maxAttempts int
	limiter     *rate.Limiter
	httpClient  *http.Client
	sleep       func(ctx context.Context, d time.Duration) error
}

// APIError ошибка, которую вернул Bot API
type APIError struct {
	Method      string
	StatusCode  int
	ErrorCode   int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.ErrorCode, e.Description)
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsNotModified редактирование не изменило сообщение, это не считается ошибкой
func IsNotModified(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Description, "message is not modified")
	}
	return false
}

// IsMessageGone сообщение уже удалено или недоступно
func IsMessageGone(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Description, "message to delete not found") ||
			strings.Contains(apiErr.Description, "message to edit not found")
	}
	return false
}

func (i impl) getLogger(method string) *log.Entry {
	return log.WithField("external_request", "telegram").WithField("method", method)
}

// call выполняет метод Bot API с ограниченным числом попыток
func (i impl) call(ctx context.Context, method string, payload any, result any) error {
	logger := i.getLogger(method)
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "ошибка сериализации запроса")
	}
	var lastErr error
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		if err = i.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "ожидание лимита запросов прервано")
		}
		lastErr = i.do(ctx, method, body, result)
		if lastErr == nil {
			return nil
		}
		wait, retry := i.retryDelay(lastErr, attempt)
		if !retry || attempt == i.maxAttempts {
			break
		}
		logger.
			WithError(lastErr).
			WithField("attempt", attempt).
			Warn("повтор запроса к telegram")
		if err = i.sleep(ctx, wait); err != nil {
			return errors.Wrap(lastErr, "запрос прерван")
		}
	}
	return lastErr
}

func (i impl) retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if !apiErr.retryable() {
			return 0, false
		}
		if apiErr.RetryAfter > 0 {
			wait := time.Duration(apiErr.RetryAfter) * time.Second
			if wait > maxRetryAfter {
				return 0, false
			}
			return wait, true
		}
	}
	return baseBackoff * time.Duration(attempt), true
}

func (i impl) do(ctx context.Context, method string, body []byte, result any) error {
	url := i.host + fmt.Sprintf(methodPathPattern, i.token, method)
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "ошибка создания запроса")
	}
	r.Header.Set("Content-Type", "application/json")
	response, err := i.httpClient.Do(r)
	if err != nil {
		return errors.Wrap(err, "ошибка отправки запроса в telegram")
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "ошибка чтения ответа telegram")
	}
	envelope := tgapimodels.Response{}
	if err = json.Unmarshal(responseBody, &envelope); err != nil {
		return &APIError{Method: method, StatusCode: response.StatusCode, Description: string(responseBody)}
	}
	if !envelope.OK {
		apiErr := &APIError{
			Method:      method,
			StatusCode:  response.StatusCode,
			ErrorCode:   envelope.ErrorCode,
			Description: envelope.Description,
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return apiErr
	}
	if result != nil && len(envelope.Result) != 0 {
		if err = json.Unmarshal(envelope.Result, result); err != nil {
			return errors.Wrap(err, "ошибка сериализации ответа")
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
