package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/domain/event"
)

func TestMetrics_CountsDispatchedEvents(t *testing.T) {
	m := New()
	d := dispatcher.NewDispatcher()
	m.Subscribe(d)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeRequestCreated, "1F1000126", nil)))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeTransitionRecorded, "1F1000126", map[string]interface{}{
		event.KeyAction:    "ManagerApprove",
		event.KeyNewStatus: 2,
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeTransitionRecorded, "1F1000126", map[string]interface{}{
		event.KeyAction:    "ManagerApprove",
		event.KeyNewStatus: 2,
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeOptionsRemoved, "1F1000126", map[string]interface{}{
		event.KeyAction: "DeleteAllOptions",
	})))
	require.NoError(t, d.Dispatch(ctx, event.NewEvent(event.TypeAuditWriteFailed, "1F1000126", nil)))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("ManagerApprove", "2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.optionsPurged.WithLabelValues("DeleteAllOptions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditFailures.WithLabelValues("unknown")))
}

func TestMetrics_NotificationsAndHandler(t *testing.T) {
	m := New()
	m.NotificationSent(1, "sent")
	m.NotificationSent(1, "failed")
	m.NotificationSent(1, "sent")
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("1", "sent")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `travel_approval_email_notifications_total{outcome="failed",status="1"} 1`), body)
	assert.Contains(t, body, `route="unmatched"`)
}
