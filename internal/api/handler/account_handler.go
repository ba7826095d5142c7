package handler

import (
	"net/http"
	"strings"

	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/rj/api"
	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	accounts service.IAccountService
	baseURL  string
}

// NewAccountHandler baseURL 用於組出啟用連結
func NewAccountHandler(accounts service.IAccountService, baseURL string) *AccountHandler {
	if accounts == nil {
		panic("account service cannot be nil")
	}
	return &AccountHandler{
		accounts: accounts,
		baseURL:  baseURL,
	}
}

func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	view, err := h.accounts.GetAccount(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, view, nil)
}

// UpdateProfile 接受 json, 或帶 picture 檔案的 multipart 表單
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var form service.ProfileForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := parseMultipart(w, r); err != nil {
			badRequest(w, err)
			return
		}
		form.FirstName = r.FormValue("first_name")
		form.LastName = r.FormValue("last_name")
		form.Email = r.FormValue("email")
		uploads, err := readUploads(r, "picture")
		if err != nil {
			badRequest(w, err)
			return
		}
		if len(uploads) > 0 {
			form.Picture = &uploads[0]
		}
	} else if err := decodeJSON(r, &form); err != nil {
		badRequest(w, err)
		return
	}

	view, err := h.accounts.UpdateProfile(r.Context(), actor.UserID, form)
	if err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, view, nil)
}

func (h *AccountHandler) SendActivation(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	if err := h.accounts.SendActivation(r.Context(), actor.UserID, h.baseURL); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}

// Activate 信件內的連結, 不需要登入
func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	uid, err := uintParam(r, "uid")
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := h.accounts.Activate(r.Context(), uid, chi.URLParam(r, "token")); err != nil {
		writeError(w, err)
		return
	}
	api.SuccessJSON(w, nil, nil)
}
