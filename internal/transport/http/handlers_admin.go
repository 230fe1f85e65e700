package httptransport

import (
	"net/http"
	"strconv"

	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/platform/httputil"
	authmw "docstamp/pkg/platform/middleware/auth"
)

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	users, err := h.admin.ListUsers(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	logs, err := h.admin.ListLogs(ctx)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, "admin", adminPage{
		Actor: authmw.GetIdentity(ctx).Actor,
		Users: users,
		Logs:  logs,
	})
}

func (h *Handler) handleAddUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	isAdmin, _ := strconv.ParseBool(r.PostForm.Get("is_admin"))
	_, err := h.admin.AddUser(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"), isAdmin)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			h.renderPage(w, r, http.StatusConflict, "message", messagePage{
				Title:    "Kullanıcı eklenemedi",
				Message:  "Zaten var",
				BackURL:  "/admin",
				BackText: "Yönetim",
			})
			return
		}
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	if err := h.admin.DeleteUser(r.Context(), r.PostForm.Get("username")); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleLogs lists the generation log, most recent first. ?format=json returns
// the raw records.
func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.admin.ListLogs(r.Context())
	if r.URL.Query().Get("format") == "json" {
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, logs)
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, "logs", logsPage{Logs: logs})
}

func (h *Handler) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ClearLogs(r.Context()); err != nil {
		h.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/logs", http.StatusSeeOther)
}
