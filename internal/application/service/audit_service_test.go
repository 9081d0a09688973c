package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

type mockAuditRepo struct {
	createFunc        func(ctx context.Context, log *entity.AuditLog) error
	getByIDFunc       func(ctx context.Context, logID int64) (*entity.AuditLog, error)
	listByRequestFunc func(ctx context.Context, requestID string) ([]*entity.AuditLog, error)
}

func (m *mockAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, log)
	}
	log.LogID = 1
	return nil
}

func (m *mockAuditRepo) GetByID(ctx context.Context, logID int64) (*entity.AuditLog, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, logID)
	}
	return nil, nil
}

func (m *mockAuditRepo) ListByRequest(ctx context.Context, requestID string) ([]*entity.AuditLog, error) {
	if m.listByRequestFunc != nil {
		return m.listByRequestFunc(ctx, requestID)
	}
	return nil, nil
}

func TestAuditService_RecordTransition(t *testing.T) {
	tests := []struct {
		name     string
		entry    audit.Entry
		wantDesc string
	}{
		{
			name: "manager approval via api",
			entry: audit.Entry{
				RequestID: "1F1000001", ActorUserID: 7, Kind: audit.KindManagerApproved,
				OldStatusID: entity.StatusPtr(1), NewStatusID: entity.StatusPtr(2),
				Details: audit.Details{ActorName: "Priya"},
			},
			wantDesc: "Manager (Priya) approved. Status changed from 'Pending Review' to 'Verified'.",
		},
		{
			name: "du head rejection via email link",
			entry: audit.Entry{
				RequestID: "1F1000001", ActorUserID: 8, Kind: audit.KindDuHeadRejected,
				OldStatusID: entity.StatusPtr(2), NewStatusID: entity.StatusPtr(12),
				Details: audit.Details{ActorName: "Dev", ActorEmail: "du@corp.test", ViaEmailLink: true},
			},
			wantDesc: "Dev (du@corp.test) performed 'DuHeadRejected' via email link.",
		},
		{
			name: "feedback falls back to the entry actor",
			entry: audit.Entry{
				RequestID: "1F1000001", ActorUserID: 9, Kind: audit.KindFeedbackSubmitted,
				OldStatusID: entity.StatusPtr(4), NewStatusID: entity.StatusPtr(4),
			},
			wantDesc: "Travel feedback submitted by user ID 9.",
		},
		{
			name:     "creation has no old status",
			entry:    audit.Entry{RequestID: "1F1000001", ActorUserID: 9, Kind: audit.KindRequestCreated, NewStatusID: entity.StatusPtr(1)},
			wantDesc: "New travel request created.",
		},
	}

	fixed := time.Date(2026, 3, 4, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored *entity.AuditLog
			repo := &mockAuditRepo{createFunc: func(_ context.Context, log *entity.AuditLog) error {
				log.LogID = 42
				stored = log
				return nil
			}}
			svc := NewAuditService(repo, nopLogger{}).(*auditServiceImpl)
			svc.now = func() time.Time { return fixed }

			log, err := svc.RecordTransition(context.Background(), tt.entry)
			require.NoError(t, err)
			require.Same(t, stored, log)

			assert.Equal(t, int64(42), log.LogID)
			assert.Equal(t, tt.entry.Kind.String(), log.ActionType)
			assert.Equal(t, tt.entry.ActorUserID, log.UserID)
			assert.Equal(t, tt.wantDesc, log.ChangeDescription)
			assert.Equal(t, time.UTC, log.Timestamp.Location())
			assert.True(t, log.Timestamp.Equal(fixed))
			assert.Equal(t, log.Timestamp, log.ActionDate)
		})
	}
}

func TestAuditService_RecordTransitionFailureKeepsEntry(t *testing.T) {
	repo := &mockAuditRepo{createFunc: func(context.Context, *entity.AuditLog) error {
		return errors.New("disk full")
	}}
	svc := NewAuditService(repo, nopLogger{})

	log, err := svc.RecordTransition(context.Background(), audit.Entry{
		RequestID: "1F1000001", Kind: audit.KindCancelled,
		OldStatusID: entity.StatusPtr(1), NewStatusID: entity.StatusPtr(11),
		Details: audit.Details{ActorName: "Riya"},
	})

	require.Error(t, err)
	require.NotNil(t, log)
	assert.Zero(t, log.LogID)
	assert.Equal(t, "Travel request cancelled by Riya.", log.ChangeDescription)
}

func TestAuditService_GetByID(t *testing.T) {
	repo := &mockAuditRepo{getByIDFunc: func(_ context.Context, logID int64) (*entity.AuditLog, error) {
		if logID == 5 {
			return &entity.AuditLog{LogID: 5}, nil
		}
		return nil, nil
	}}
	svc := NewAuditService(repo, nopLogger{})

	log, err := svc.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), log.LogID)

	_, err = svc.GetByID(context.Background(), 6)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Audit log with ID 6 not found.", apperr.Message(err, ""))
}

func TestAuditService_ListByRequest(t *testing.T) {
	tests := []struct {
		name    string
		logs    []*entity.AuditLog
		repoErr error
		wantErr error
		wantMsg string
	}{
		{name: "returns entries", logs: []*entity.AuditLog{{LogID: 1}, {LogID: 2}}},
		{name: "empty is not found", wantErr: apperr.ErrNotFound, wantMsg: "No audit logs found for Travel Request '1F1000001'."},
		{name: "repository failure", repoErr: errors.New("locked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockAuditRepo{listByRequestFunc: func(context.Context, string) ([]*entity.AuditLog, error) {
				return tt.logs, tt.repoErr
			}}
			logs, err := NewAuditService(repo, nopLogger{}).ListByRequest(context.Background(), "1F1000001")

			switch {
			case tt.repoErr != nil:
				assert.ErrorIs(t, err, tt.repoErr)
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantMsg, apperr.Message(err, ""))
			default:
				require.NoError(t, err)
				assert.Len(t, logs, len(tt.logs))
			}
		})
	}
}
