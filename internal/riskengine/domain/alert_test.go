package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	alert := &RiskAlert{
		AlertID:    "RA1",
		TenantID:   "tenant-1",
		EntityType: ScopeDocument,
		EntityID:   "doc-1",
		Severity:   SeverityHigh,
		Status:     AlertStatusOpen,
	}

	require.True(t, alert.IsOpen())
	require.NoError(t, alert.Start())
	assert.Equal(t, AlertStatusInProgress, alert.Status)
	assert.True(t, alert.IsOpen())

	require.NoError(t, alert.Close("user-7", now))
	assert.Equal(t, AlertStatusClosed, alert.Status)
	assert.False(t, alert.IsOpen())
	require.NotNil(t, alert.ResolvedAt)
	assert.Equal(t, now, *alert.ResolvedAt)
	require.NotNil(t, alert.ResolvedByUserID)
	assert.Equal(t, "user-7", *alert.ResolvedByUserID)
}

func TestAlertInvalidTransitions(t *testing.T) {
	now := time.Now()

	started := &RiskAlert{Status: AlertStatusInProgress}
	assert.ErrorIs(t, started.Start(), ErrInvalidTransition)

	closed := &RiskAlert{Status: AlertStatusClosed}
	assert.ErrorIs(t, closed.Start(), ErrInvalidTransition)
	assert.ErrorIs(t, closed.Close("user-7", now), ErrInvalidTransition)
}

func TestAlertCloseFromOpen(t *testing.T) {
	alert := &RiskAlert{Status: AlertStatusOpen}
	require.NoError(t, alert.Close("user-1", time.Now()))
	assert.Equal(t, AlertStatusClosed, alert.Status)
}

func TestAlertTriggeredCodesRoundTrip(t *testing.T) {
	alert := &RiskAlert{}
	require.NoError(t, alert.SetTriggeredCodes([]string{CodeDocProcessingFailed, CodeInvMissingTaxNumber}))
	assert.Equal(t, []string{CodeDocProcessingFailed, CodeInvMissingTaxNumber}, alert.TriggeredCodes())
}
