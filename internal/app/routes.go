package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Events; fixed paths before {eventId}
	r.HandleFunc("/api/event", deps.EventHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event/upcoming", deps.EventHandler.UpcomingEvents).Methods("GET")
	r.HandleFunc("/api/event/names", deps.EventHandler.EventNames).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.DeleteEvent).Methods("DELETE")

	// Reminders
	r.HandleFunc("/api/reminder/today", deps.ReminderHandler.SendToday).Methods("POST")

	// Telegram
	r.HandleFunc("/api/telegram/test", deps.TelegramHandler.SendTestMessage).Methods("POST")

	// Calendar export
	r.HandleFunc("/api/calendar/export", deps.CalendarHandler.Export).Methods("GET")

	// User management
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current/telegram", deps.UserHandler.UnlinkTelegram).Methods("DELETE")
}
