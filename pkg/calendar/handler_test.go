package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/keepsake/keepsake/internal/test_utils"
	"github.com/keepsake/keepsake/internal/utils"
	"github.com/keepsake/keepsake/pkg/event"
	"github.com/keepsake/keepsake/pkg/occurrence"
	"github.com/keepsake/keepsake/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userProviderFunc func(ctx context.Context) (user.User, error)

func (f userProviderFunc) GetCurrentUser(ctx context.Context) (user.User, error) {
	return f(ctx)
}

func TestHandler_Export(t *testing.T) {
	clock := &utils.MockClock{FixedNow: exportTime}

	t.Run("should download the calendar as an attachment", func(t *testing.T) {
		// given
		lister := stubLister{events: []event.Event{{
			Id:          uuid.New(),
			Name:        "Mom",
			EventDate:   occurrence.Date{Year: 1960, Month: time.June, Day: 15},
			IsRecurring: true,
		}}}
		handler := NewHandler(NewExporter(lister, clock), test_utils.TestUserProvider{})
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/export", nil)
		rr := httptest.NewRecorder()

		// when
		handler.Export(rr, req)

		// then
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/calendar; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="keepsake.ics"`, rr.Header().Get("Content-Disposition"))
		body := rr.Body.String()
		assert.Contains(t, body, "BEGIN:VCALENDAR")
		assert.Contains(t, body, "X-WR-CALNAME:Test User")
		assert.Contains(t, body, "SUMMARY:Mom")
		assert.Contains(t, body, "RRULE:FREQ=YEARLY")
	})

	t.Run("should return 403 without a user", func(t *testing.T) {
		handler := NewHandler(NewExporter(stubLister{}, clock), userProviderFunc(user.CurrentUser))
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/export", nil)
		rr := httptest.NewRecorder()

		handler.Export(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("should return 500 when events cannot be read", func(t *testing.T) {
		handler := NewHandler(NewExporter(stubLister{err: errors.New("connection refused")}, clock), test_utils.TestUserProvider{})
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/export", nil)
		rr := httptest.NewRecorder()

		handler.Export(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"Failed to export calendar"}`, rr.Body.String())
	})
}
