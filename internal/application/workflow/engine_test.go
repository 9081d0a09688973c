package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/application/port/porttest"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// storeRecorder appends entries straight into the in-memory store
type storeRecorder struct {
	repo port.AuditLogRepository
}

func (r storeRecorder) RecordTransition(ctx context.Context, entry audit.Entry) (*entity.AuditLog, error) {
	log := &entity.AuditLog{
		RequestID:   entry.RequestID,
		UserID:      entry.ActorUserID,
		ActionType:  entry.Kind.String(),
		OldStatusID: entry.OldStatusID,
		NewStatusID: entry.NewStatusID,
		Comments:    entry.Comments,
	}
	return log, r.repo.Create(ctx, log)
}

type eventSink struct {
	mu     sync.Mutex
	events []*event.Event
}

func (s *eventSink) handle(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *eventSink) ofType(t event.Type) []*event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*event.Event
	for _, evt := range s.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	store   *porttest.Store
	engine  Engine
	events  *eventSink
	disp    dispatcher.Dispatcher
	manager *domainwf.Actor
}

func newFixture(t *testing.T, status domainwf.State) *fixture {
	t.Helper()

	store := porttest.NewStore()
	store.AddProject(&entity.Project{ProjectCode: "P100", ProjectManagerEmail: "pm@corp.test", DuHeadEmail: "du@corp.test"})
	manager := store.AddUser(&entity.User{EmployeeName: "Priya", EmployeeEmail: "PM@corp.test", UserRole: entity.RoleManager, IsActive: true})
	store.AddRequest(&entity.TravelRequest{RequestID: "1F1000001", UserID: 1, ProjectCode: "P100", CurrentStatusID: int(status), IsActive: true})

	sink := &eventSink{}
	disp := dispatcher.NewDispatcher()
	for _, eventType := range []event.Type{event.TypeTransitionRecorded, event.TypeOptionsRemoved, event.TypeAuditWriteFailed} {
		disp.Subscribe(eventType, sink.handle)
	}

	engine := NewEngine(store.Requests, store.Projects, store.Tx, storeRecorder{store.Audit}, nopLogger{}, WithDispatcher(disp))

	return &fixture{store: store, engine: engine, events: sink, disp: disp, manager: ActorFromUser(manager)}
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	if err := f.disp.Close(); err != nil {
		t.Fatalf("close dispatcher: %v", err)
	}
}

func TestEngine_ManagerApproveAppliesOnce(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	ctx := event.ContextWithCorrelationID(context.Background(), "corr-1")
	cmd := Command{RequestID: "1F1000001", Trigger: domainwf.TriggerManagerApprove, Actor: f.manager, Comments: "ok"}

	first, err := f.engine.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.Decision.To != domainwf.StateVerified {
		t.Errorf("To = %v, want Verified", first.Decision.To)
	}

	second, err := f.engine.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.Decision.IsNoOp() {
		t.Error("second approval should be a no-op")
	}
	f.drain(t)

	if got := f.store.Request("1F1000001").CurrentStatusID; got != 2 {
		t.Errorf("status = %d, want 2", got)
	}
	logs := f.store.Logs("1F1000001")
	if len(logs) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(logs))
	}
	if logs[0].OldStatus() != 1 || logs[0].NewStatus() != 2 || logs[0].Comments != "ok" {
		t.Errorf("audit row = %+v", logs[0])
	}

	events := f.events.ofType(event.TypeTransitionRecorded)
	if len(events) != 1 {
		t.Fatalf("transition events = %d, want 1", len(events))
	}
	if events[0].AuditLog() == nil || events[0].CorrelationID != "corr-1" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEngine_ForbiddenLeavesNoTrace(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	intruder := &domainwf.Actor{UserID: 99, Name: "Mallory", Email: "mallory@corp.test", Active: true}

	_, err := f.engine.Execute(context.Background(), Command{RequestID: "1F1000001", Trigger: domainwf.TriggerManagerApprove, Actor: intruder})
	f.drain(t)

	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Execute() error = %v, want forbidden", err)
	}
	if got := f.store.Request("1F1000001").CurrentStatusID; got != 1 {
		t.Errorf("status = %d, want 1", got)
	}
	if len(f.store.Logs("1F1000001")) != 0 {
		t.Error("no audit row expected")
	}
	if len(f.events.ofType(event.TypeTransitionRecorded)) != 0 {
		t.Error("no event expected")
	}
}

func TestEngine_AuditFailureKeepsStatus(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	f.store.AuditErr = errors.New("disk full")

	result, err := f.engine.Execute(context.Background(), Command{RequestID: "1F1000001", Trigger: domainwf.TriggerManagerApprove, Actor: f.manager})
	f.drain(t)

	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if got := f.store.Request("1F1000001").CurrentStatusID; got != 2 {
		t.Errorf("status = %d, want 2", got)
	}
	if result.AuditLog == nil || result.AuditLog.LogID != 0 {
		t.Errorf("AuditLog = %+v, want unsaved entry", result.AuditLog)
	}
	if len(f.events.ofType(event.TypeTransitionRecorded)) != 1 {
		t.Error("notification event should still be raised")
	}
	if len(f.events.ofType(event.TypeAuditWriteFailed)) != 1 {
		t.Error("audit failure event expected")
	}
}

type racingRequests struct {
	port.TravelRequestRepository
}

func (racingRequests) CompareAndSetStatus(context.Context, string, int, int) error {
	return port.ErrStatusChanged
}

func TestEngine_LostRaceIsConflict(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	engine := NewEngine(racingRequests{f.store.Requests}, f.store.Projects, f.store.Tx, storeRecorder{f.store.Audit}, nopLogger{})

	_, err := engine.Execute(context.Background(), Command{RequestID: "1F1000001", Trigger: domainwf.TriggerManagerApprove, Actor: f.manager})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("Execute() error = %v, want conflict", err)
	}
	if len(f.store.Logs("1F1000001")) != 0 {
		t.Error("no audit row expected")
	}
}

func TestEngine_LoadErrors(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)

	_, err := f.engine.Execute(context.Background(), Command{RequestID: "missing", Trigger: domainwf.TriggerManagerApprove, Actor: f.manager})
	if !errors.Is(err, apperr.ErrNotFound) || apperr.Message(err, "") != "Travel Request 'missing' not found." {
		t.Errorf("Execute() error = %v, want not found", err)
	}

	f.store.AddRequest(&entity.TravelRequest{RequestID: "1F1000002", ProjectCode: "GONE", CurrentStatusID: 1, IsActive: true})
	_, err = f.engine.Execute(context.Background(), Command{RequestID: "1F1000002", Trigger: domainwf.TriggerManagerApprove, Actor: f.manager})

	var missing *ProjectMissingError
	if !errors.As(err, &missing) || missing.ProjectCode != "GONE" {
		t.Fatalf("Execute() error = %v, want ProjectMissingError", err)
	}
	if !errors.Is(err, domainwf.ErrProjectMissing) {
		t.Error("ProjectMissingError should unwrap to ErrProjectMissing")
	}
}

func TestEngine_ApplyFailureAborts(t *testing.T) {
	f := newFixture(t, domainwf.StateVerified)
	admin := &domainwf.Actor{UserID: 7, Name: "Ada", Role: entity.RoleAdmin, Active: true}
	boom := errors.New("insert failed")

	_, err := f.engine.Execute(context.Background(), Command{
		RequestID: "1F1000001",
		Trigger:   domainwf.TriggerListOptions,
		Actor:     admin,
		Apply:     func(context.Context, *entity.TravelRequest) error { return boom },
	})
	f.drain(t)

	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}
	if len(f.events.ofType(event.TypeTransitionRecorded)) != 0 {
		t.Error("no event expected after an aborted transaction")
	}
}

func TestEngine_PublishOverridesAndBeforeEntries(t *testing.T) {
	f := newFixture(t, domainwf.StateOptionsListed)
	admin := &domainwf.Actor{UserID: 7, Name: "Ada", Role: entity.RoleAdmin, Active: true}

	result, err := f.engine.Execute(context.Background(), Command{
		RequestID: "1F1000001",
		Trigger:   domainwf.TriggerDeleteOption,
		Actor:     admin,
		Facts:     domainwf.Facts{TargetOptionID: 3},
		Before:    []audit.Entry{{Kind: audit.KindOptionDeleted}},
		Audit:     AuditOnStatusChange,
		Publish:   event.TypeOptionsRemoved,
	})
	f.drain(t)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.AuditLog != nil {
		t.Error("unchanged status should not write the transition entry")
	}
	logs := f.store.Logs("1F1000001")
	if len(logs) != 1 || logs[0].ActionType != string(audit.KindOptionDeleted) || logs[0].UserID != 7 {
		t.Fatalf("audit rows = %+v", logs)
	}
	if len(f.events.ofType(event.TypeOptionsRemoved)) != 1 {
		t.Error("options removed event expected")
	}
	if len(f.events.ofType(event.TypeTransitionRecorded)) != 0 {
		t.Error("deletions must not raise notification events")
	}
}

func TestEngine_QuietSuppressesEvents(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)

	_, err := f.engine.Execute(context.Background(), Command{
		RequestID: "1F1000001",
		Trigger:   domainwf.TriggerSubmitFeedback,
		Actor:     &domainwf.Actor{UserID: 1, Name: "Owner", Active: true},
		Quiet:     true,
	})
	f.drain(t)

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(f.store.Logs("1F1000001")) != 1 {
		t.Error("feedback should still be audited")
	}
	if len(f.events.ofType(event.TypeTransitionRecorded)) != 0 {
		t.Error("quiet commands raise no events")
	}
}

func TestNewSubject(t *testing.T) {
	selected := int64(4)
	req := &entity.TravelRequest{RequestID: "r", UserID: 3, CurrentStatusID: 4, SelectedTicketOptionID: &selected}

	subject := NewSubject(req, nil, domainwf.Facts{TargetOptionID: 4})
	if subject.HasProject {
		t.Error("nil project should leave HasProject false")
	}
	if !subject.Facts.TargetIsSelected() {
		t.Error("selected option should be copied into facts")
	}
	if subject.Status != domainwf.StateOptionSelected {
		t.Errorf("Status = %v", subject.Status)
	}
}
