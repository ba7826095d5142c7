package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/bikemarket/internal/api/dto"
	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/rj/api"
)

type SupportHandler struct {
	support service.ISupportService
}

func NewSupportHandler(support service.ISupportService) *SupportHandler {
	if support == nil {
		panic("support service cannot be nil")
	}
	return &SupportHandler{
		support: support,
	}
}

// History 使用者自己的對話紀錄
func (h *SupportHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	messages, err := h.support.History(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, messages, nil)
}

func (h *SupportHandler) Post(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var in service.NewMessage
	if err := decodeJSON(r, &in); err != nil {
		badRequest(w, err)
		return
	}
	msg, err := h.support.PostUserMessage(r.Context(), actor.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, msg, nil)
}

func (h *SupportHandler) Replies(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	replies, err := h.support.Replies(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, replies, nil)
}

func (h *SupportHandler) Unread(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	messages, err := h.support.Unread(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, messages, nil)
}

func (h *SupportHandler) Users(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	users, err := h.support.UsersWithMessages(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, users, nil)
}

// Tickets GET /admin/support/tickets?status=open
func (h *SupportHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	status := model.MessageStatus(r.URL.Query().Get("status"))
	tickets, err := h.support.ListTickets(r.Context(), actor, status)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, tickets, nil)
}

func (h *SupportHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	userID, err := uintParam(r, "userID")
	if err != nil {
		badRequest(w, err)
		return
	}
	conv, err := h.support.Conversation(r.Context(), actor, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, conv, nil)
}

// StaffReply 回覆一張 ticket, ticket 轉為處理中
func (h *SupportHandler) StaffReply(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var body dto.ReplyDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	reply, err := h.support.StaffReply(r.Context(), actor, id, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, reply, nil)
}

// DirectReply 直接回覆使用者, 帶 parent_id 時該 ticket 結案
func (h *SupportHandler) DirectReply(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	userID, err := uintParam(r, "userID")
	if err != nil {
		badRequest(w, err)
		return
	}
	var body dto.ReplyDTO
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	reply, err := h.support.DirectReply(r.Context(), actor, userID, body.ParentID, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, reply, nil)
}

func (h *SupportHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, err := uintParam(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}
	var upd service.TicketUpdate
	if err := decodeJSON(r, &upd); err != nil {
		badRequest(w, err)
		return
	}
	ticket, err := h.support.UpdateTicket(r.Context(), actor, id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, ticket, nil)
}
