package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
	httpmw "github.com/muhammadhuzaifasarfraz/collab-sphere/internal/transport/http/middleware"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/transport/ws"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/pkg/errs"
	"github.com/muhammadhuzaifasarfraz/collab-sphere/pkg/httputil"
)

type MessageSvc interface {
	Send(ctx context.Context, senderID, recipientID, text string) (*domain.Message, error)
	GetConversation(ctx context.Context, selfID, otherID string) ([]domain.Message, error)
}

type ConversationSvc interface {
	ListConversations(ctx context.Context, selfID string) ([]domain.Conversation, error)
	ListCandidates(ctx context.Context, selfID string) ([]domain.Identity, domain.Role, error)
}

// Notifier is the hub surface the handler needs: push an event to a room.
// Passed in as a dependency so no package-level hub exists.
type Notifier interface {
	Broadcast(identityID string, evt ws.Event)
}

type Handler struct {
	messages      MessageSvc
	conversations ConversationSvc
	notifier      Notifier
}

func NewHandler(messages MessageSvc, conversations ConversationSvc, notifier Notifier) *Handler {
	return &Handler{
		messages:      messages,
		conversations: conversations,
		notifier:      notifier,
	}
}

// The policy rejection text is fixed and never varies with policy internals.
const policyMessage = "Invalid message interaction. Students can only message alumni and vice versa."

func writeError(w http.ResponseWriter, err error) {
	status, code := errs.ToHTTP(err)
	msg := err.Error()
	switch code {
	case errs.CodePolicyViolation:
		msg = policyMessage
	case errs.CodeUnauthorized:
		msg = "unauthorized"
	case errs.CodeStorage:
		msg = "server error"
	}
	httputil.Error(w, status, code, msg)
}

// POST /api/messages/send
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := httpmw.IdentityFromCtx(r.Context())
	if senderID == "" {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, errs.CodeInvalidInput, "invalid json")
		return
	}

	msg, err := h.messages.Send(r.Context(), senderID, req.RecipientID, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			slog.Error("handler.SendMessage:", slog.Any("err", err))
		}
		writeError(w, err)
		return
	}

	// durable write done; the push is best-effort and independent of it
	h.notifier.Broadcast(msg.RecipientID, ws.NewMessageEvent(msg))

	httputil.JSON(w, http.StatusCreated, messageItem(msg))
}

// GET /api/messages/conversation/{otherUserId}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	selfID := httpmw.IdentityFromCtx(r.Context())
	if selfID == "" {
		writeError(w, domain.ErrUnauthorized)
		return
	}
	otherID := chi.URLParam(r, "otherUserId")

	msgs, err := h.messages.GetConversation(r.Context(), selfID, otherID)
	if err != nil {
		slog.Error("handler.GetConversation:", slog.Any("err", err))
		writeError(w, err)
		return
	}

	items := make([]MessageItem, 0, len(msgs))
	for i := range msgs {
		items = append(items, messageItem(&msgs[i]))
	}
	httputil.JSON(w, http.StatusOK, items)
}

// GET /api/messages/conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	selfID := httpmw.IdentityFromCtx(r.Context())
	if selfID == "" {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	convs, err := h.conversations.ListConversations(r.Context(), selfID)
	if err != nil {
		slog.Error("handler.ListConversations:", slog.Any("err", err))
		writeError(w, err)
		return
	}

	items := make([]ConversationItem, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		items = append(items, ConversationItem{
			User:        *summaryItem(&c.Partner),
			LastMessage: messageItem(&c.LastMessage),
			UnreadCount: c.UnreadCount,
		})
	}
	httputil.JSON(w, http.StatusOK, items)
}

// GET /api/messages/users
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	selfID := httpmw.IdentityFromCtx(r.Context())
	if selfID == "" {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	users, targetRole, err := h.conversations.ListCandidates(r.Context(), selfID)
	if err != nil {
		slog.Error("handler.ListCandidates:", slog.Any("err", err))
		writeError(w, err)
		return
	}

	resp := CandidatesResponse{Users: make([]IdentitySummary, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, *summaryItem(&users[i]))
	}
	if len(resp.Users) == 0 {
		resp.Message = fmt.Sprintf("No %s users found", targetRole)
	}
	httputil.JSON(w, http.StatusOK, resp)
}
