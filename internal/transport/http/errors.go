package httptransport

import (
	"net/http"

	"docstamp/pkg/platform/httputil"
	"docstamp/pkg/platform/middleware/request"
)

// renderError translates a domain error into an HTML message page. Server-side
// failures are logged and shown with generic text.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, msg := httputil.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			"error", err,
			"status", status,
			"request_id", request.GetRequestID(ctx),
		)
	}
	h.renderPage(w, r, status, "message", messagePage{
		Title:    http.StatusText(status),
		Message:  msg,
		BackURL:  "/",
		BackText: "Ana sayfa",
	})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.views.render(w, status, page, data); err != nil {
		ctx := r.Context()
		h.logger.ErrorContext(ctx, "template render failed",
			"page", page,
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
