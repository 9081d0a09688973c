package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

var errDriver = errors.New("database is locked")

func TestRepositories_PropagateDriverErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		call   func(r *TravelRequestRepository, o *TicketOptionRepository, u *UserRepository, a *AuditLogRepository) error
	}{
		{
			name:   "get request",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT .* FROM travel_requests").WillReturnError(errDriver) },
			call: func(r *TravelRequestRepository, _ *TicketOptionRepository, _ *UserRepository, _ *AuditLogRepository) error {
				_, err := r.GetByID(ctx, "1F1000126")
				return err
			},
		},
		{
			name:   "compare and set",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("UPDATE travel_requests SET current_status_id").WillReturnError(errDriver) },
			call: func(r *TravelRequestRepository, _ *TicketOptionRepository, _ *UserRepository, _ *AuditLogRepository) error {
				return r.CompareAndSetStatus(ctx, "1F1000126", 1, 2)
			},
		},
		{
			name: "mark selected clear step",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec("UPDATE ticket_options SET is_selected = 0").WillReturnError(errDriver)
			},
			call: func(_ *TravelRequestRepository, o *TicketOptionRepository, _ *UserRepository, _ *AuditLogRepository) error {
				return o.MarkSelected(ctx, "1F1000126", 3)
			},
		},
		{
			name:   "user by email",
			expect: func(m sqlmock.Sqlmock) { m.ExpectQuery("SELECT .* FROM users").WillReturnError(errDriver) },
			call: func(_ *TravelRequestRepository, _ *TicketOptionRepository, u *UserRepository, _ *AuditLogRepository) error {
				_, err := u.GetByEmail(ctx, "riya@corp.test")
				return err
			},
		},
		{
			name:   "audit append",
			expect: func(m sqlmock.Sqlmock) { m.ExpectExec("INSERT INTO audit_logs").WillReturnError(errDriver) },
			call: func(_ *TravelRequestRepository, _ *TicketOptionRepository, _ *UserRepository, a *AuditLogRepository) error {
				return a.Create(ctx, &entity.AuditLog{RequestID: "1F1000126", ActionType: "REQUEST_CREATED"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			logger := zap.NewNop()
			tt.expect(mock)

			err = tt.call(
				NewTravelRequestRepository(db, logger),
				NewTicketOptionRepository(db, logger),
				NewUserRepository(db, logger),
				NewAuditLogRepository(db, logger),
			)
			assert.ErrorIs(t, err, errDriver)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTravelRequestRepository_CompareAndSetStatusNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE travel_requests SET current_status_id").
		WithArgs(2, sqlmock.AnyArg(), "1F1000126", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewTravelRequestRepository(db, zap.NewNop()).CompareAndSetStatus(context.Background(), "1F1000126", 1, 2)
	assert.ErrorIs(t, err, port.ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusRepository_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT status_id, status_name FROM request_statuses").
		WillReturnRows(sqlmock.NewRows([]string{"status_id", "status_name"}).AddRow("not-a-number", "Pending Review"))

	_, err = NewStatusRepository(db, zap.NewNop()).List(context.Background())
	assert.Error(t, err)
}
