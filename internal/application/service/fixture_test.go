package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/garyjia/travel-approval/internal/application/dispatcher"
	"github.com/garyjia/travel-approval/internal/application/port/porttest"
	appwf "github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

const testRequestID = "1F1000001"

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

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

// fixture wires the real services over the in-memory store
type fixture struct {
	store    *porttest.Store
	disp     dispatcher.Dispatcher
	events   *eventSink
	audit    AuditService
	engine   appwf.Engine
	options  TicketOptionService
	approval ApprovalService
	requests TravelRequestService

	requester *entity.User
	manager   *entity.User
	duHead    *entity.User
	admin     *entity.User
}

func newFixture(t *testing.T, status domainwf.State) *fixture {
	t.Helper()

	store := porttest.NewStore()
	store.AddProject(&entity.Project{
		ProjectCode:         "P100",
		ProjectName:         "Atlas",
		ProjectManager:      "Priya PM",
		ProjectManagerEmail: "pm@corp.test",
		DuHeadName:          "Dev DU",
		DuHeadEmail:         "du@corp.test",
	})

	f := &fixture{store: store, events: &eventSink{}}
	f.requester = store.AddUser(&entity.User{EmployeeName: "Riya", EmployeeEmail: "riya@corp.test", UserRole: entity.RoleEmployee, IsActive: true})
	f.manager = store.AddUser(&entity.User{EmployeeName: "Priya", EmployeeEmail: "PM@corp.test", UserRole: entity.RoleManager, IsActive: true})
	f.duHead = store.AddUser(&entity.User{EmployeeName: "Dev", EmployeeEmail: "du@corp.test", UserRole: entity.RoleManager, IsActive: true})
	f.admin = store.AddUser(&entity.User{EmployeeName: "Ada", EmployeeEmail: "admin@corp.test", UserRole: entity.RoleAdmin, IsActive: true})

	store.AddRequest(&entity.TravelRequest{
		RequestID:        testRequestID,
		UserID:           f.requester.UserID,
		TravelModeID:     entity.TravelModeFlight,
		ProjectCode:      "P100",
		SourcePlace:      "Pune",
		DestinationPlace: "Berlin",
		PurposeOfTravel:  "Client workshop",
		CurrentStatusID:  int(status),
		IsActive:         true,
	})

	f.disp = dispatcher.NewDispatcher()
	for _, eventType := range []event.Type{event.TypeRequestCreated, event.TypeTransitionRecorded, event.TypeOptionsRemoved, event.TypeAuditWriteFailed} {
		f.disp.Subscribe(eventType, f.events.handle)
	}

	f.audit = NewAuditService(store.Audit, nopLogger{})
	f.engine = appwf.NewEngine(store.Requests, store.Projects, store.Tx, f.audit, nopLogger{}, appwf.WithDispatcher(f.disp))
	f.options = NewTicketOptionService(f.engine, store.Options, store.Requests, store.Users, store.Tx, f.audit, nopLogger{})
	f.approval = NewApprovalService(f.engine, f.options, store.Users, nopLogger{})
	f.requests = NewTravelRequestService(f.engine, store.Requests, store.Projects, store.Users, store.Airlines, store.Tx, f.audit, f.disp, nopLogger{})

	return f
}

// drain waits for every dispatched handler to finish
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	if err := f.disp.Close(); err != nil {
		t.Fatalf("close dispatcher: %v", err)
	}
}

func (f *fixture) status() int {
	return f.store.Request(testRequestID).CurrentStatusID
}

func (f *fixture) kinds() []string {
	var out []string
	for _, log := range f.store.Logs(testRequestID) {
		out = append(out, log.ActionType)
	}
	return out
}

func asUser(u *entity.User) ActorRef {
	return ActorRef{UserID: u.UserID}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
