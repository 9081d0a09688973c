package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/audit"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/domain/event"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

type sentEmail struct {
	template port.EmailTemplate
	data     port.EmailData
	to       []string
}

// mailbox renders and delivers into memory
type mailbox struct {
	mu       sync.Mutex
	pending  []sentEmail
	sent     []sentEmail
	sendFunc func(msg port.EmailMessage) error
}

func (m *mailbox) Render(tmpl port.EmailTemplate, data port.EmailData) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, sentEmail{template: tmpl, data: data})
	return string(tmpl), "<p>" + data.RequestID + "</p>", nil
}

func (m *mailbox) Send(_ context.Context, msg port.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := m.pending[0]
	m.pending = m.pending[1:]
	if m.sendFunc != nil {
		if err := m.sendFunc(msg); err != nil {
			return err
		}
	}
	email.to = msg.To
	m.sent = append(m.sent, email)
	return nil
}

func (m *mailbox) to(email string) []sentEmail {
	var out []sentEmail
	for _, s := range m.sent {
		for _, addr := range s.to {
			if entity.SameEmail(addr, email) {
				out = append(out, s)
			}
		}
	}
	return out
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (r *outcomeRecorder) NotificationSent(_ int, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string]int)
	}
	r.outcomes[outcome]++
}

func newNotifier(f *fixture) (NotificationService, *mailbox, *outcomeRecorder) {
	box := &mailbox{}
	rec := &outcomeRecorder{}
	svc := NewNotificationService(f.store.Requests, f.store.Users, f.store.Projects, f.store.Options, box, box, rec, "https://travel.corp.test/", nopLogger{})
	return svc, box, rec
}

func logAt(status domainwf.State, kind audit.Kind, userID int64) *entity.AuditLog {
	return &entity.AuditLog{
		LogID:       1,
		RequestID:   testRequestID,
		UserID:      userID,
		ActionType:  string(kind),
		NewStatusID: entity.StatusPtr(int(status)),
	}
}

func templates(emails []sentEmail) []port.EmailTemplate {
	var out []port.EmailTemplate
	for _, e := range emails {
		out = append(out, e.template)
	}
	return out
}

func TestNotificationService_RecipientsByStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    domainwf.State
		kind      audit.Kind
		requester []port.EmailTemplate
		manager   []port.EmailTemplate
		duHead    []port.EmailTemplate
		admin     []port.EmailTemplate
	}{
		{
			name: "submitted", status: domainwf.StatePendingReview, kind: audit.KindRequestCreated,
			requester: []port.EmailTemplate{port.TemplateRequestSubmitted},
			manager:   []port.EmailTemplate{port.TemplateManagerApproval},
			duHead:    []port.EmailTemplate{port.TemplateGeneral},
			admin:     []port.EmailTemplate{port.TemplateGeneral},
		},
		{
			name: "manager approved", status: domainwf.StateVerified, kind: audit.KindManagerApproved,
			requester: []port.EmailTemplate{port.TemplateGeneral},
			duHead:    []port.EmailTemplate{port.TemplateDuHeadApproval},
			admin:     []port.EmailTemplate{port.TemplateGeneral},
		},
		{
			name: "du head approved", status: domainwf.StateDuApproved, kind: audit.KindDuHeadApproved,
			requester: []port.EmailTemplate{port.TemplateRequestApproved},
			manager:   []port.EmailTemplate{port.TemplateGeneral},
			admin:     []port.EmailTemplate{port.TemplateProvideOptions},
		},
		{
			name: "ticket booked", status: domainwf.StateOptionSelected, kind: audit.KindOptionSelected,
			requester: []port.EmailTemplate{port.TemplateTicketBooked},
			manager:   []port.EmailTemplate{port.TemplateTicketBooked},
			duHead:    []port.EmailTemplate{port.TemplateTicketBooked},
			admin:     []port.EmailTemplate{port.TemplateTicketBooked},
		},
		{
			name: "manager rejected skips the manager", status: domainwf.StateRejected, kind: audit.KindManagerRejected,
			requester: []port.EmailTemplate{port.TemplateRequestRejected},
			duHead:    []port.EmailTemplate{port.TemplateRequestRejected},
			admin:     []port.EmailTemplate{port.TemplateRequestRejected},
		},
		{
			name: "du head rejected skips the du head", status: domainwf.StateRejected, kind: audit.KindDuHeadRejected,
			requester: []port.EmailTemplate{port.TemplateRequestRejected},
			manager:   []port.EmailTemplate{port.TemplateRequestRejected},
			admin:     []port.EmailTemplate{port.TemplateRequestRejected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.status)
			svc, box, rec := newNotifier(f)

			require.NoError(t, svc.Notify(context.Background(), logAt(tt.status, tt.kind, f.manager.UserID)))

			assert.Equal(t, tt.requester, templates(box.to("riya@corp.test")), "requester")
			assert.Equal(t, tt.manager, templates(box.to("pm@corp.test")), "manager")
			assert.Equal(t, tt.duHead, templates(box.to("du@corp.test")), "du head")
			assert.Equal(t, tt.admin, templates(box.to("admin@corp.test")), "admin")
			assert.Equal(t, len(box.sent), rec.outcomes[OutcomeSent])
			assert.Zero(t, rec.outcomes[OutcomeFailed])
		})
	}
}

func TestNotificationService_ManagerApprovalLinks(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	svc, box, _ := newNotifier(f)

	require.NoError(t, svc.Notify(context.Background(), logAt(domainwf.StatePendingReview, audit.KindRequestCreated, f.requester.UserID)))

	emails := box.to("pm@corp.test")
	require.Len(t, emails, 1)
	data := emails[0].data
	assert.Equal(t, "Priya", data.Salutation)
	assert.Equal(t, "Riya", data.RequesterName)
	assert.Equal(t, "Atlas", data.ProjectName)
	assert.Equal(t, "https://travel.corp.test/confirm-action.html?action=manager-approve&requestId=1F1000001&intendedActor=pm%40corp.test", data.ApproveURL)
	assert.Equal(t, "https://travel.corp.test/confirm-action.html?action=manager-reject&requestId=1F1000001&intendedActor=pm%40corp.test", data.RejectURL)

	duHead := box.to("du@corp.test")
	require.Len(t, duHead, 1)
	assert.Equal(t, "New travel request 1F1000001 by Riya (Project: Atlas) is pending manager approval.", duHead[0].data.Message)
}

func TestNotificationService_OptionsListed(t *testing.T) {
	f := newFixture(t, domainwf.StateOptionsListed)
	first := f.store.AddOption(&entity.TicketOption{RequestID: testRequestID, OptionDescription: "Lufthansa 06:10"})
	f.store.AddOption(&entity.TicketOption{RequestID: testRequestID, OptionDescription: "Already chosen", IsSelected: true})
	svc, box, _ := newNotifier(f)

	require.NoError(t, svc.Notify(context.Background(), logAt(domainwf.StateOptionsListed, audit.KindOptionsListed, f.admin.UserID)))

	require.Len(t, box.sent, 1)
	email := box.sent[0]
	assert.Equal(t, port.TemplateTicketOptions, email.template)
	assert.Equal(t, []string{"pm@corp.test"}, email.to)
	require.Len(t, email.data.Options, 1)
	assert.Equal(t, "Lufthansa 06:10", email.data.Options[0].Description)
	assert.Equal(t, "https://travel.corp.test/confirm-action.html?action=select-ticket&requestId=1F1000001&intendedActor=pm%40corp.test&optionId="+itoa(first.OptionID), email.data.Options[0].SelectURL)
}

func TestNotificationService_RejectionDetails(t *testing.T) {
	f := newFixture(t, domainwf.StateRejected)
	svc, box, _ := newNotifier(f)
	log := logAt(domainwf.StateRejected, audit.KindDuHeadRejected, f.duHead.UserID)
	log.Comments = "Budget freeze"

	require.NoError(t, svc.Notify(context.Background(), log))

	emails := box.to("riya@corp.test")
	require.Len(t, emails, 1)
	assert.Equal(t, "DU Head", emails[0].data.RejectedBy)
	assert.Equal(t, "Budget freeze", emails[0].data.Comments)
}

func TestNotificationService_CancelledDeduplicates(t *testing.T) {
	f := newFixture(t, domainwf.StateCancelled)
	f.store.AddUser(&entity.User{EmployeeName: "Second Admin", EmployeeEmail: "PM@corp.test", UserRole: entity.RoleAdmin, IsActive: true})
	svc, box, _ := newNotifier(f)

	require.NoError(t, svc.Notify(context.Background(), logAt(domainwf.StateCancelled, audit.KindCancelled, f.requester.UserID)))

	require.Len(t, box.sent, 4)
	var recipients []string
	for _, email := range box.sent {
		require.Len(t, email.to, 1)
		recipients = append(recipients, email.to[0])
		assert.Equal(t, "Travel request 1F1000001 has been cancelled by Riya.", email.data.Message)
	}
	assert.Equal(t, []string{"riya@corp.test", "pm@corp.test", "du@corp.test", "admin@corp.test"}, recipients)
}

func TestNotificationService_OneRefusedRecipientDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t, domainwf.StateCancelled)
	f.store.AddUser(&entity.User{EmployeeName: "Second Admin", EmployeeEmail: "ops@corp.test", UserRole: entity.RoleAdmin, IsActive: true})
	svc, box, rec := newNotifier(f)
	box.sendFunc = func(msg port.EmailMessage) error {
		if entity.SameEmail(msg.To[0], "du@corp.test") {
			return errors.New("smtp: 550 mailbox unavailable")
		}
		return nil
	}

	require.NoError(t, svc.Notify(context.Background(), logAt(domainwf.StateCancelled, audit.KindCancelled, f.requester.UserID)))

	assert.Empty(t, box.to("du@corp.test"))
	assert.Len(t, box.to("riya@corp.test"), 1)
	assert.Len(t, box.to("admin@corp.test"), 1)
	assert.Len(t, box.to("ops@corp.test"), 1)
	assert.Equal(t, 1, rec.outcomes[OutcomeFailed])
	assert.Equal(t, 4, rec.outcomes[OutcomeSent])
}

func TestNotificationService_UnhandledStatus(t *testing.T) {
	f := newFixture(t, domainwf.StateTicketDispatched)
	svc, box, rec := newNotifier(f)

	require.NoError(t, svc.Notify(context.Background(), logAt(domainwf.StateTicketDispatched, audit.KindTicketUploaded, f.admin.UserID)))

	assert.Empty(t, box.sent)
	assert.Equal(t, 1, rec.outcomes[OutcomeUnhandled])
}

func TestNotificationService_MissingProjectSkips(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	req := f.store.Request(testRequestID)
	req.ProjectCode = "GONE"
	f.store.AddRequest(req)
	svc, box, rec := newNotifier(f)

	err := svc.Notify(context.Background(), logAt(domainwf.StatePendingReview, audit.KindRequestCreated, f.requester.UserID))

	assert.Error(t, err)
	assert.Empty(t, box.sent)
	assert.Equal(t, 1, rec.outcomes[OutcomeSkipped])
}

func TestNotificationService_SendFailureContinues(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	svc, box, rec := newNotifier(f)
	box.sendFunc = func(msg port.EmailMessage) error {
		if msg.Subject == string(port.TemplateManagerApproval) {
			return errors.New("smtp: 421 try later")
		}
		return nil
	}

	require.NoError(t, svc.Notify(context.Background(), logAt(domainwf.StatePendingReview, audit.KindRequestCreated, f.requester.UserID)))

	assert.Len(t, box.sent, 3)
	assert.Equal(t, 1, rec.outcomes[OutcomeFailed])
	assert.Equal(t, 3, rec.outcomes[OutcomeSent])
}

func TestNotificationService_HandleFiltersEvents(t *testing.T) {
	f := newFixture(t, domainwf.StateVerified)
	svc, box, _ := newNotifier(f)
	ctx := context.Background()

	removed := event.NewEvent(event.TypeOptionsRemoved, testRequestID, nil).
		WithAuditLog(logAt(domainwf.StateVerified, audit.KindAllOptionsDeleted, f.admin.UserID))
	require.NoError(t, svc.Handle(ctx, removed))
	assert.Empty(t, box.sent)

	bare := event.NewEvent(event.TypeTransitionRecorded, testRequestID, nil)
	require.NoError(t, svc.Handle(ctx, bare))
	assert.Empty(t, box.sent)

	recorded := event.NewEvent(event.TypeTransitionRecorded, testRequestID, nil).
		WithAuditLog(logAt(domainwf.StateVerified, audit.KindManagerApproved, f.manager.UserID))
	require.NoError(t, svc.Handle(ctx, recorded))
	assert.Len(t, box.sent, 3)
}

func TestNotificationService_EndToEndThroughDispatcher(t *testing.T) {
	f := newFixture(t, domainwf.StatePendingReview)
	svc, box, _ := newNotifier(f)
	f.disp.Subscribe(event.TypeTransitionRecorded, svc.Handle)

	_, err := f.approval.Decide(context.Background(), ApprovalCommand{
		RequestID: testRequestID,
		Trigger:   domainwf.TriggerManagerApprove,
		Actor:     ActorRef{Email: "pm@corp.test"},
		Channel:   ChannelEmailLink,
	})
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, []port.EmailTemplate{port.TemplateDuHeadApproval}, templates(box.to("du@corp.test")))
}
