package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnforcer_DefaultPolicy(t *testing.T) {
	enf, err := NewEnforcer(zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		{"Employee", ResourceTravelRequest, ActionWrite, true},
		{"Employee", ResourceTicketOption, ActionRead, true},
		{"Employee", ResourceTicketOption, ActionWrite, false},
		{"Employee", ResourceTicket, ActionUpload, false},
		{"Manager", ResourceApproval, ActionDecide, true},
		{"Manager", ResourceTicketOption, ActionWrite, false},
		{"Admin", ResourceTicketOption, ActionWrite, true},
		{"Admin", ResourceTicket, ActionUpload, true},
		{"Admin", ResourceUser, ActionWrite, true},
		{"Manager", ResourceUser, ActionWrite, false},
		{"ADMIN", ResourceTravelRequest, ActionRead, true},
		{"Contractor", ResourceTravelRequest, ActionRead, false},
		{"", ResourceAuditLog, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			got, err := enf.Allowed(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnforcer_Grant(t *testing.T) {
	enf, err := NewEnforcer(zap.NewNop())
	require.NoError(t, err)

	ok, err := enf.Allowed("Auditor", ResourceAuditLog, ActionRead)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, enf.Grant("Auditor", ResourceAuditLog, ActionRead))

	ok, err = enf.Allowed("auditor", ResourceAuditLog, ActionRead)
	require.NoError(t, err)
	assert.True(t, ok)
}
