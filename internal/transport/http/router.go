package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpmw "github.com/muhammadhuzaifasarfraz/collab-sphere/internal/transport/http/middleware"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/transport/ws"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/pkg/httputil"
)

func NewRouter(h *Handler, verifier httpmw.TokenVerifier, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(httputil.MiddlewareRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(httputil.MiddlewareLogging)
	r.Use(middlewareChi.Recoverer)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}

	// realtime channel; the token is verified at the join handshake
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.Auth(verifier))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/api/messages", func(mr chi.Router) {
			mr.Post("/send", h.SendMessage)
			mr.Get("/conversation/{otherUserId}", h.GetConversation)
			mr.Get("/conversations", h.ListConversations)
			mr.Get("/users", h.ListCandidates)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
