package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/persistence/sqlite"
)

const travelRequestColumns = `
	request_id, user_id, travel_mode_id, is_international, is_round_trip, project_code,
	source_place, source_country, destination_place, destination_country,
	outbound_departure_date, outbound_arrival_date, return_departure_date, return_arrival_date,
	is_accommodation_required, is_drop_off_required, drop_off_place, is_pick_up_required, pick_up_place,
	comments, purpose_of_travel, is_vegetarian, food_comment, attended_cct,
	current_status_id, selected_ticket_option_id,
	travel_agency_name, travel_agency_expense, total_expense, ticket_document_path,
	travel_feedback, is_active, created_at, updated_at`

// TravelRequestRepository implements port.TravelRequestRepository
type TravelRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTravelRequestRepository creates a new travel request repository
func NewTravelRequestRepository(db *sql.DB, logger *zap.Logger) *TravelRequestRepository {
	return &TravelRequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new travel request
func (r *TravelRequestRepository) Create(ctx context.Context, req *entity.TravelRequest) error {
	query := `INSERT INTO travel_requests (` + travelRequestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := nowUTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		req.RequestID, req.UserID, req.TravelModeID, req.IsInternational, req.IsRoundTrip, req.ProjectCode,
		nullString(req.SourcePlace), nullString(req.SourceCountry),
		nullString(req.DestinationPlace), nullString(req.DestinationCountry),
		req.OutboundDepartureDate.UTC(), nullTime(req.OutboundArrivalDate),
		nullTime(req.ReturnDepartureDate), nullTime(req.ReturnArrivalDate),
		req.IsAccommodationRequired, req.IsDropOffRequired, nullString(req.DropOffPlace),
		req.IsPickUpRequired, nullString(req.PickUpPlace),
		nullString(req.Comments), nullString(req.PurposeOfTravel), req.IsVegetarian,
		nullString(req.FoodComment), req.AttendedCCT,
		req.CurrentStatusID, nullInt64(req.SelectedTicketOptionID),
		nullString(req.TravelAgencyName), nullFloat(req.TravelAgencyExpense), nullFloat(req.TotalExpense),
		nullString(req.TicketDocumentPath), nullString(req.TravelFeedback),
		req.IsActive, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create travel request", zap.String("request_id", req.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create travel request: %w", err)
	}

	r.logger.Debug("Travel request created",
		zap.String("request_id", req.RequestID),
		zap.Int64("user_id", req.UserID))
	return nil
}

// GetByID retrieves a travel request by its id
func (r *TravelRequestRepository) GetByID(ctx context.Context, requestID string) (*entity.TravelRequest, error) {
	query := `SELECT ` + travelRequestColumns + ` FROM travel_requests WHERE request_id = ?`

	req, err := scanTravelRequest(r.getExecutor(ctx).QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get travel request", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get travel request: %w", err)
	}
	return req, nil
}

// Exists reports whether a request id is taken
func (r *TravelRequestRepository) Exists(ctx context.Context, requestID string) (bool, error) {
	var one int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT 1 FROM travel_requests WHERE request_id = ?`, requestID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check travel request: %w", err)
	}
	return true, nil
}

// ListByUser returns the user's active requests, newest first
func (r *TravelRequestRepository) ListByUser(ctx context.Context, userID int64) ([]*entity.TravelRequest, error) {
	query := `SELECT ` + travelRequestColumns + ` FROM travel_requests
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at DESC, request_id DESC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list travel requests", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list travel requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.TravelRequest
	for rows.Next() {
		req, err := scanTravelRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan travel request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateTripDetails rewrites the editable trip fields
func (r *TravelRequestRepository) UpdateTripDetails(ctx context.Context, req *entity.TravelRequest) error {
	query := `
		UPDATE travel_requests SET
			travel_mode_id = ?, is_international = ?, is_round_trip = ?, project_code = ?,
			source_place = ?, source_country = ?, destination_place = ?, destination_country = ?,
			outbound_departure_date = ?, outbound_arrival_date = ?,
			return_departure_date = ?, return_arrival_date = ?,
			is_accommodation_required = ?, is_drop_off_required = ?, drop_off_place = ?,
			is_pick_up_required = ?, pick_up_place = ?,
			comments = ?, purpose_of_travel = ?, is_vegetarian = ?, food_comment = ?, attended_cct = ?,
			updated_at = ?
		WHERE request_id = ?
	`

	req.UpdatedAt = nowUTC()
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		req.TravelModeID, req.IsInternational, req.IsRoundTrip, req.ProjectCode,
		nullString(req.SourcePlace), nullString(req.SourceCountry),
		nullString(req.DestinationPlace), nullString(req.DestinationCountry),
		req.OutboundDepartureDate.UTC(), nullTime(req.OutboundArrivalDate),
		nullTime(req.ReturnDepartureDate), nullTime(req.ReturnArrivalDate),
		req.IsAccommodationRequired, req.IsDropOffRequired, nullString(req.DropOffPlace),
		req.IsPickUpRequired, nullString(req.PickUpPlace),
		nullString(req.Comments), nullString(req.PurposeOfTravel), req.IsVegetarian,
		nullString(req.FoodComment), req.AttendedCCT,
		req.UpdatedAt, req.RequestID,
	)
	if err != nil {
		r.logger.Error("Failed to update travel request", zap.String("request_id", req.RequestID), zap.Error(err))
		return fmt.Errorf("failed to update travel request: %w", err)
	}
	return requireRow(result, "travel request", req.RequestID)
}

// CompareAndSetStatus moves a request between statuses only if it still holds from
func (r *TravelRequestRepository) CompareAndSetStatus(ctx context.Context, requestID string, from, to int) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`UPDATE travel_requests SET current_status_id = ?, updated_at = ? WHERE request_id = ? AND current_status_id = ?`,
		to, nowUTC(), requestID, from)
	if err != nil {
		r.logger.Error("Failed to update travel request status",
			zap.String("request_id", requestID),
			zap.Int("from", from),
			zap.Int("to", to),
			zap.Error(err))
		return fmt.Errorf("failed to update travel request status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.Warn("Travel request status changed concurrently",
			zap.String("request_id", requestID),
			zap.Int("expected", from))
		return port.ErrStatusChanged
	}
	return nil
}

// SetSelectedOption records the chosen option, or clears it when optionID is nil
func (r *TravelRequestRepository) SetSelectedOption(ctx context.Context, requestID string, optionID *int64) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`UPDATE travel_requests SET selected_ticket_option_id = ?, updated_at = ? WHERE request_id = ?`,
		nullInt64(optionID), nowUTC(), requestID)
	if err != nil {
		return fmt.Errorf("failed to set selected option: %w", err)
	}
	return requireRow(result, "travel request", requestID)
}

// SaveFeedback stores the requester's trip feedback
func (r *TravelRequestRepository) SaveFeedback(ctx context.Context, requestID string, feedback string) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`UPDATE travel_requests SET travel_feedback = ?, updated_at = ? WHERE request_id = ?`,
		nullString(feedback), nowUTC(), requestID)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return requireRow(result, "travel request", requestID)
}

// SaveTicketDetails stores the booking data of a dispatched ticket
func (r *TravelRequestRepository) SaveTicketDetails(ctx context.Context, requestID string, d *entity.TicketDetails) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `
		UPDATE travel_requests SET
			travel_agency_name = ?, travel_agency_expense = ?, total_expense = ?,
			ticket_document_path = ?, updated_at = ?
		WHERE request_id = ?`,
		nullString(d.TravelAgencyName), d.TravelAgencyExpense, d.TotalExpense,
		nullString(d.TicketDocumentPath), nowUTC(), requestID)
	if err != nil {
		r.logger.Error("Failed to save ticket details", zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("failed to save ticket details: %w", err)
	}
	return requireRow(result, "travel request", requestID)
}

func scanTravelRequest(row rowScanner) (*entity.TravelRequest, error) {
	var req entity.TravelRequest
	var sourcePlace, sourceCountry, destPlace, destCountry sql.NullString
	var dropOff, pickUp, comments, purpose, food sql.NullString
	var agency, docPath, feedback sql.NullString
	var outboundArrival, returnDeparture, returnArrival sql.NullTime
	var selected sql.NullInt64
	var agencyExpense, totalExpense sql.NullFloat64

	err := row.Scan(
		&req.RequestID, &req.UserID, &req.TravelModeID, &req.IsInternational, &req.IsRoundTrip, &req.ProjectCode,
		&sourcePlace, &sourceCountry, &destPlace, &destCountry,
		&req.OutboundDepartureDate, &outboundArrival, &returnDeparture, &returnArrival,
		&req.IsAccommodationRequired, &req.IsDropOffRequired, &dropOff, &req.IsPickUpRequired, &pickUp,
		&comments, &purpose, &req.IsVegetarian, &food, &req.AttendedCCT,
		&req.CurrentStatusID, &selected,
		&agency, &agencyExpense, &totalExpense, &docPath,
		&feedback, &req.IsActive, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.SourcePlace = sourcePlace.String
	req.SourceCountry = sourceCountry.String
	req.DestinationPlace = destPlace.String
	req.DestinationCountry = destCountry.String
	req.OutboundArrivalDate = timePtr(outboundArrival)
	req.ReturnDepartureDate = timePtr(returnDeparture)
	req.ReturnArrivalDate = timePtr(returnArrival)
	req.DropOffPlace = dropOff.String
	req.PickUpPlace = pickUp.String
	req.Comments = comments.String
	req.PurposeOfTravel = purpose.String
	req.FoodComment = food.String
	req.SelectedTicketOptionID = int64Ptr(selected)
	req.TravelAgencyName = agency.String
	req.TravelAgencyExpense = floatPtr(agencyExpense)
	req.TotalExpense = floatPtr(totalExpense)
	req.TicketDocumentPath = docPath.String
	req.TravelFeedback = feedback.String

	return &req, nil
}

func requireRow(result sql.Result, what, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s not found: %s", what, id)
	}
	return nil
}

func (r *TravelRequestRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.TravelRequestRepository = (*TravelRequestRepository)(nil)
