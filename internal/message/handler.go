package message

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/httputil"
	"github.com/redmonkez12/whisper-api/internal/logging"
	"github.com/redmonkez12/whisper-api/internal/reporting"
)

// Handler contains HTTP handlers for the /api/messages endpoints
type Handler struct {
	service  *Service
	reporter reporting.Reporter
}

func NewHandler(service *Service, reporter reporting.Reporter) *Handler {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	return &Handler{service: service, reporter: reporter}
}

// SendRequest represents the send message request body
type SendRequest struct {
	MessageBody string `json:"messageBody"`
	// IsAnonymous defaults to true on /send and false on /send/{userId}.
	IsAnonymous *bool  `json:"isAnonymous,omitempty"`
	ToUserID    string `json:"toUserId,omitempty"`
}

// Send delivers a message to a random user
// @Summary      Send to a random stranger
// @Description  Picks a recipient uniformly at random among all other users. Anonymous unless isAnonymous is false.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendRequest true "Message"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Missing fields"
// @Failure      401 {object} httputil.Response "Session expired"
// @Failure      403 {object} httputil.Response "Access denied"
// @Failure      404 {object} httputil.Response "No recipient available or sender deleted"
// @Router       /api/messages/send [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, req, ok := h.decode(w, r)
	if !ok {
		return
	}

	anonymous := true
	if req.IsAnonymous != nil {
		anonymous = *req.IsAnonymous
	}

	msg, err := h.service.SendAnonymous(r.Context(), claims.UserID, req.MessageBody, anonymous)
	if err != nil {
		h.respondServiceError(w, logger, "send failed", err)
		return
	}

	logger.Info("message sent", "message_id", msg.ID, "anonymous", msg.IsAnonymous)
	httputil.RespondSuccess(w, httputil.Response{Message: httputil.MsgMessageSent}, http.StatusOK)
}

// SendToUser delivers a message to the user in the path
// @Summary      Send to a specific user
// @Description  The sender is recorded unless isAnonymous is true. toUserId in the body, when given, must equal the path id.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path string      true "Recipient user id"
// @Param        request body SendRequest true "Message"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Missing fields"
// @Failure      401 {object} httputil.Response "Session expired"
// @Failure      403 {object} httputil.Response "Access denied"
// @Failure      404 {object} httputil.Response "Recipient or sender not found"
// @Router       /api/messages/send/{userId} [post]
func (h *Handler) SendToUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, req, ok := h.decode(w, r)
	if !ok {
		return
	}

	toUserID := chi.URLParam(r, "userId")
	if req.ToUserID != "" && req.ToUserID != toUserID {
		h.respondServiceError(w, logger, "send failed", ErrRecipientMismatch)
		return
	}

	anonymous := false
	if req.IsAnonymous != nil {
		anonymous = *req.IsAnonymous
	}

	msg, err := h.service.SendToUser(r.Context(), claims.UserID, toUserID, req.MessageBody, anonymous)
	if err != nil {
		h.respondServiceError(w, logger, "send failed", err)
		return
	}

	logger.Info("message sent", "message_id", msg.ID, "to_user_id", toUserID, "anonymous", msg.IsAnonymous)
	httputil.RespondSuccess(w, httputil.Response{Message: httputil.MsgMessageSent}, http.StatusOK)
}

// Received lists the caller's inbox
// @Summary      List received messages
// @Description  Oldest first. Anonymous messages carry no fromUserId.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.Response{data=[]Message}
// @Failure      401 {object} httputil.Response "Session expired"
// @Failure      403 {object} httputil.Response "Access denied"
// @Router       /api/messages/received [get]
func (h *Handler) Received(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, httputil.MsgAccessDenied, http.StatusForbidden)
		return
	}

	msgs, err := h.service.ListReceived(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, logger, "listing messages failed", err)
		return
	}

	httputil.RespondSuccess(w, httputil.Response{Data: msgs}, http.StatusOK)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*auth.Claims, SendRequest, bool) {
	var req SendRequest

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, httputil.MsgAccessDenied, http.StatusForbidden)
		return nil, req, false
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("invalid message request body", "error", err.Error())
		httputil.RespondError(w, httputil.MsgInvalidRequestBody, http.StatusBadRequest)
		return nil, req, false
	}
	return claims, req, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, msg string, err error) {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrRecipientMismatch):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgRequiredFields, http.StatusBadRequest)
	case errors.Is(err, ErrSenderNotFound):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrNoRecipientAvailable):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgNoRecipient, http.StatusNotFound)
	case errors.Is(err, ErrRecipientNotFound):
		logger.Warn(msg, "error", err.Error())
		httputil.RespondError(w, httputil.MsgRecipientNotFound, http.StatusNotFound)
	default:
		logger.Error(msg, "error", err.Error())
		h.reporter.CaptureException(err)
		httputil.RespondError(w, httputil.StoreErrorMessage(err), http.StatusInternalServerError)
	}
}
