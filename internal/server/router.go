package server

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Router builds the HTTP routing table for the JSON API.
func (a *App) Router() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", a.RegisterHandler).Methods("POST")
	api.HandleFunc("/auth/login", a.LoginHandler).Methods("POST")
	api.HandleFunc("/auth/logout", a.LogoutHandler).Methods("POST")

	api.HandleFunc("/articles", a.CreateArticleHandler).Methods("POST")
	api.HandleFunc("/articles/{slug}", a.GetArticleHandler).Methods("GET")
	api.HandleFunc("/articles/{slug}", a.SubmitEditHandler).Methods("PUT")
	api.HandleFunc("/articles/{slug}/history", a.HistoryHandler).Methods("GET")
	api.HandleFunc("/articles/{slug}/revisions/{number}/raw", a.RawRevisionHandler).Methods("GET")
	api.HandleFunc("/articles/{slug}/revisions/{number}/blame", a.BlameHandler).Methods("GET")
	api.HandleFunc("/articles/{slug}/compare", a.CompareHandler).Methods("GET")

	api.HandleFunc("/revisions/{id}/revert", a.RevertHandler).Methods("POST")
	api.HandleFunc("/revisions/{id}", a.ModerateHandler).Methods("PATCH")

	api.HandleFunc("/moderation/queue", a.ModerationQueueHandler).Methods("GET")
	api.HandleFunc("/reports", a.SubmitReportHandler).Methods("POST")
	api.HandleFunc("/reports/{id}/resolve", a.ResolveReportHandler).Methods("POST")

	var handler http.Handler = router
	handler = a.SessionMiddleware(handler)
	handler = handlers.CompressHandler(handler)
	handler = SlogLoggingMiddleware(handler)
	handler = handlers.RecoveryHandler()(handler)
	return handler
}
