package eventbus

type Event string

const (
	VacancyCreated                  Event = "VACANCY_CREATED"
	VacancyApproved                 Event = "VACANCY_APPROVED"
	VacancyRejected                 Event = "VACANCY_REJECTED"
	VacancyNewMember                Event = "VACANCY_NEW_MEMBER"
	VacancyLeftMember               Event = "VACANCY_LEFT_MEMBER"
	VacancyBeforeCall               Event = "VACANCY_BEFORE_CALL"
	VacancyStartCall                Event = "VACANCY_START_CALL"
	VacancyStartCallFail            Event = "VACANCY_START_CALL_FAIL"
	VacancyAfterStartCall           Event = "VACANCY_AFTER_START_CALL"
	VacancyAfterStartCallSuccess    Event = "VACANCY_AFTER_START_CALL_SUCCESS"
	VacancyAfterStartCallFail       Event = "VACANCY_AFTER_START_CALL_FAIL"
	VacancyClose                    Event = "VACANCY_CLOSE"
	VacancyCloseForcibly            Event = "VACANCY_CLOSE_FORCIBLY"
	VacancyClosePaymentDoesNotExist Event = "VACANCY_CLOSE_PAYMENT_DOES_NOT_EXIST"
	VacancyRefind                   Event = "VACANCY_REFIND"
	VacancyDelete                   Event = "VACANCY_DELETE"
	VacancyNewFeedback              Event = "VACANCY_NEW_FEEDBACK"
)

var AllEvents = []Event{
	VacancyCreated,
	VacancyApproved,
	VacancyRejected,
	VacancyNewMember,
	VacancyLeftMember,
	VacancyBeforeCall,
	VacancyStartCall,
	VacancyStartCallFail,
	VacancyAfterStartCall,
	VacancyAfterStartCallSuccess,
	VacancyAfterStartCallFail,
	VacancyClose,
	VacancyCloseForcibly,
	VacancyClosePaymentDoesNotExist,
	VacancyRefind,
	VacancyDelete,
	VacancyNewFeedback,
}
