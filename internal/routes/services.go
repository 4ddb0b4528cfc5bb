package routes

import (
	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/repository"
	"github.com/AnshRaj112/leadcrm-backend/internal/services"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

// Stores are the collections the API persists to.
type Stores struct {
	Users            repository.Records[models.User]
	Calls            repository.Records[models.Call]
	Visits           repository.Records[models.Visit]
	LoanRequests     repository.Records[models.LoanRequest]
	WhatsappMessages repository.Records[models.WhatsappMessage]
}

// Services are the business components behind the handlers.
type Services struct {
	Users            *services.UserService
	Sessions         *services.SessionManager
	Calls            *services.RecordService[models.Call]
	Visits           *services.RecordService[models.Visit]
	LoanRequests     *services.RecordService[models.LoanRequest]
	WhatsappMessages *services.RecordService[models.WhatsappMessage]
}

// NewServices wires the services onto stores. cache may be nil.
func NewServices(stores Stores, signer *utils.TokenSigner, cache services.SessionCache) Services {
	return Services{
		Users:            services.NewUserService(stores.Users, cache),
		Sessions:         services.NewSessionManager(stores.Users, signer, cache),
		Calls:            services.NewCallService(stores.Calls),
		Visits:           services.NewVisitService(stores.Visits),
		LoanRequests:     services.NewLoanRequestService(stores.LoanRequests),
		WhatsappMessages: services.NewWhatsappMessageService(stores.WhatsappMessages),
	}
}
