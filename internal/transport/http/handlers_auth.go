package httptransport

import (
	"net/http"

	dErrors "docstamp/pkg/domain-errors"
	authmw "docstamp/pkg/platform/middleware/auth"
	"docstamp/pkg/platform/middleware/request"
)

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "login", loginPage{})
}

// handleLogin exchanges credentials for a session cookie. Any session the
// caller already holds is ended first.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}

	sess, err := h.gate.Authenticate(ctx, r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidCredentials) {
			h.renderPage(w, r, http.StatusUnauthorized, "message", messagePage{
				Title:    "Giriş başarısız",
				Message:  "Geçersiz bilgiler",
				BackURL:  loginPath,
				BackText: "Geri dön",
			})
			return
		}
		h.renderError(w, r, err)
		return
	}

	if previous := authmw.GetIdentity(ctx); previous.SessionID != "" {
		if err := h.gate.Logout(ctx, previous.SessionID); err != nil {
			h.logger.WarnContext(ctx, "failed to end previous session",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
		}
	}

	if err := h.cookies.Set(w, sess); err != nil {
		h.renderError(w, r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session cookie"))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.gate.Logout(ctx, authmw.GetIdentity(ctx).SessionID); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
