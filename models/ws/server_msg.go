package wsmodels

// ServerMessage событие жизненного цикла вакансии для ленты сотрудников
type ServerMessage struct {
	ToUserID  int64  `json:"-"`
	Time      string `json:"time"`                 // время события
	Code      string `json:"code"`                 // код события
	VacancyID string `json:"vacancy_id,omitempty"` // вакансия
	Status    string `json:"status,omitempty"`     // статус вакансии на момент события
	UserID    int64  `json:"user_id,omitempty"`    // участник, к которому относится событие
	Msg       string `json:"msg"`                  // текст события
}
