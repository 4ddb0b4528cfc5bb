package routes

import (
	"net/http"

	"github.com/AnshRaj112/leadcrm-backend/internal/handlers"
	"github.com/AnshRaj112/leadcrm-backend/internal/middleware"
	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Users            *handlers.UserHandler
	Calls            *handlers.RecordHandler[models.Call]
	Visits           *handlers.RecordHandler[models.Visit]
	LoanRequests     *handlers.RecordHandler[models.LoanRequest]
	WhatsappMessages *handlers.RecordHandler[models.WhatsappMessage]

	// Auth guards the routes that need a session.
	Auth func(http.Handler) http.Handler
}

func SetupRoutes(r chi.Router, h Handlers) {
	auth := r.With(h.Auth)

	// User routes
	r.Post("/users", h.Users.Signup)
	r.Post("/users/login", h.Users.Login)
	r.Get("/users/check-cpf", h.Users.CheckCPF)
	r.Patch("/users/{id}", h.Users.CompleteSignup)
	auth.Post("/users/logout", h.Users.Logout)
	auth.Post("/users/logoutAll", h.Users.LogoutAll)
	auth.Get("/users/me", h.Users.Me)
	auth.Patch("/users/me", h.Users.UpdateMe)
	auth.Delete("/users/me", h.Users.DeleteMe)

	// Relationships
	r.Get("/users/{id}/calls", h.Calls.ListByUser)
	r.Get("/users/{id}/visits", h.Visits.ListByUser)
	r.Get("/users/{id}/loan-requests", h.LoanRequests.ListByUser)
	r.Get("/users/{id}/whatsapp-messages", h.WhatsappMessages.ListByUser)

	// Call routes
	r.Post("/calls", h.Calls.Create)
	auth.Get("/calls", h.Calls.List)
	auth.Get("/calls/{id}", h.Calls.Get)
	auth.Patch("/calls/{id}", h.Calls.Patch)
	auth.Delete("/calls/{id}", h.Calls.Delete)

	// Visit routes
	r.Post("/visits", h.Visits.Create)
	auth.Get("/visits", h.Visits.List)
	auth.Get("/visits/{id}", h.Visits.Get)
	auth.Patch("/visits/{id}", h.Visits.Patch)
	auth.Delete("/visits/{id}", h.Visits.Delete)

	// Loan request routes
	r.Post("/loan-requests", h.LoanRequests.Create)
	auth.Get("/loan-requests", h.LoanRequests.List)
	auth.Get("/loan-requests/{id}", h.LoanRequests.Get)
	auth.Patch("/loan-requests/{id}", h.LoanRequests.Patch)
	auth.Delete("/loan-requests/{id}", h.LoanRequests.Delete)

	// WhatsApp message routes
	r.Post("/whatsapp-messages", h.WhatsappMessages.Create)
	auth.Get("/whatsapp-messages", h.WhatsappMessages.List)
	auth.Get("/whatsapp-messages/{id}", h.WhatsappMessages.Get)
	auth.Patch("/whatsapp-messages/{id}", h.WhatsappMessages.Patch)
	auth.Delete("/whatsapp-messages/{id}", h.WhatsappMessages.Delete)
}

// NewHandlers builds the handler set from its services.
func NewHandlers(deps Services) Handlers {
	return Handlers{
		Users:            handlers.NewUserHandler(deps.Users, deps.Sessions),
		Calls:            handlers.NewRecordHandler(deps.Calls),
		Visits:           handlers.NewRecordHandler(deps.Visits),
		LoanRequests:     handlers.NewRecordHandler(deps.LoanRequests),
		WhatsappMessages: handlers.NewRecordHandler(deps.WhatsappMessages),
		Auth:             middleware.Auth(deps.Sessions),
	}
}
