package calendar

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/keepsake/keepsake/internal/rest"
	"github.com/keepsake/keepsake/pkg/user"
	log "github.com/sirupsen/logrus"
)

const exportFileName = "keepsake.ics"

type CalendarExporter interface {
	Export(ctx context.Context, w io.Writer, name string) error
}

type Handler struct {
	exporter CalendarExporter
	users    user.Provider
}

func NewHandler(exporter CalendarExporter, users user.Provider) *Handler {
	return &Handler{exporter: exporter, users: users}
}

// Export godoc
// @Summary Export events as iCalendar
// @Description Download all events of the current user as an ICS file
// @Tags Calendar
// @Produce text/calendar
// @Success 200 {file} file "keepsake.ics"
// @Failure 403 {string} string "User not found"
// @Router /api/calendar/export [get]
// @Security XUserId
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log.Trace("Exporting calendar")

	currentUser, err := h.users.GetCurrentUser(r.Context())
	if err != nil {
		writeExportError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(r.Context(), &buf, currentUser.DisplayName); err != nil {
		writeExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warnf("failed to write calendar export: %v", err)
	}
}

func writeExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrNoUser) {
		http.Error(w, "User not found", http.StatusForbidden)
		return
	}
	log.Errorf("calendar export failed: %v", err)
	rest.WriteError(w, http.StatusInternalServerError, "Failed to export calendar", "")
}
