package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/apperr"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

var pdfContent = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

type mockDocumentStore struct {
	saveFn func(ctx context.Context, requestID, filename string, content []byte) (string, error)
	readFn func(ctx context.Context, path string) ([]byte, error)
}

func (m *mockDocumentStore) Save(ctx context.Context, requestID, filename string, content []byte) (string, error) {
	return m.saveFn(ctx, requestID, filename, content)
}

func (m *mockDocumentStore) Read(ctx context.Context, path string) ([]byte, error) {
	return m.readFn(ctx, path)
}

func (m *mockDocumentStore) Delete(context.Context, string) error {
	return nil
}

func TestTicketDocumentService_Store(t *testing.T) {
	tests := []struct {
		name     string
		status   domainwf.State
		actor    func(f *fixture) ActorRef
		filename string
		content  []byte
		wantErr  error
		wantPath string
	}{
		{name: "admin stores pdf", status: domainwf.StateOptionSelected, actor: func(f *fixture) ActorRef { return asUser(f.admin) }, filename: "ticket.pdf", content: pdfContent, wantPath: "tickets/" + testRequestID + "/ticket.pdf"},
		{name: "content does not match extension", status: domainwf.StateOptionSelected, actor: func(f *fixture) ActorRef { return asUser(f.admin) }, filename: "ticket.pdf", content: []byte("just some text"), wantErr: apperr.ErrValidation},
		{name: "unsupported type", status: domainwf.StateOptionSelected, actor: func(f *fixture) ActorRef { return asUser(f.admin) }, filename: "ticket.exe", content: []byte("x"), wantErr: apperr.ErrValidation},
		{name: "empty file", status: domainwf.StateOptionSelected, actor: func(f *fixture) ActorRef { return asUser(f.admin) }, filename: "ticket.pdf", wantErr: apperr.ErrValidation},
		{name: "requester forbidden", status: domainwf.StateOptionSelected, actor: func(f *fixture) ActorRef { return asUser(f.requester) }, filename: "ticket.pdf", content: pdfContent, wantErr: apperr.ErrForbidden},
		{name: "unknown actor", status: domainwf.StateOptionSelected, actor: func(*fixture) ActorRef { return ActorRef{Email: "ghost@corp.test"} }, filename: "ticket.pdf", content: pdfContent, wantErr: apperr.ErrUnprocessable},
		{name: "cancelled request", status: domainwf.StateCancelled, actor: func(f *fixture) ActorRef { return asUser(f.admin) }, filename: "ticket.pdf", content: pdfContent, wantErr: apperr.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.status)
			var saved []byte
			store := &mockDocumentStore{
				saveFn: func(_ context.Context, requestID, filename string, content []byte) (string, error) {
					saved = content
					return "tickets/" + requestID + "/" + filename, nil
				},
			}
			svc := NewTicketDocumentService(f.store.Requests, f.store.Users, store, nopLogger{})

			path, err := svc.Store(context.Background(), testRequestID, tt.actor(f), tt.filename, tt.content)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, saved)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.content, saved)
		})
	}
}

func TestTicketDocumentService_StoreUnknownRequest(t *testing.T) {
	f := newFixture(t, domainwf.StateVerified)
	svc := NewTicketDocumentService(f.store.Requests, f.store.Users, &mockDocumentStore{}, nopLogger{})

	_, err := svc.Store(context.Background(), "1F1999999", asUser(f.admin), "ticket.pdf", pdfContent)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTicketDocumentService_Fetch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, domainwf.StateTicketDispatched)
	store := &mockDocumentStore{
		readFn: func(_ context.Context, path string) ([]byte, error) {
			if path == "tickets/"+testRequestID+"/ticket.pdf" {
				return pdfContent, nil
			}
			return nil, port.ErrDocumentNotFound
		},
	}
	svc := NewTicketDocumentService(f.store.Requests, f.store.Users, store, nopLogger{})

	_, err := svc.Fetch(ctx, testRequestID, asUser(f.requester))
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "No ticket document has been uploaded for request 1F1000001.", apperr.Message(err, ""))

	require.NoError(t, f.store.Requests.SaveTicketDetails(ctx, testRequestID, &entity.TicketDetails{
		TravelAgencyName:   "Skyways",
		TicketDocumentPath: "tickets/" + testRequestID + "/ticket.pdf",
	}))

	doc, err := svc.Fetch(ctx, testRequestID, asUser(f.requester))
	require.NoError(t, err)
	assert.Equal(t, "ticket.pdf", doc.Name)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, pdfContent, doc.Content)

	_, err = svc.Fetch(ctx, testRequestID, asUser(f.manager))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = svc.Fetch(ctx, testRequestID, asUser(f.admin))
	assert.NoError(t, err)

	require.NoError(t, f.store.Requests.SaveTicketDetails(ctx, testRequestID, &entity.TicketDetails{
		TravelAgencyName:   "Skyways",
		TicketDocumentPath: "tickets/" + testRequestID + "/lost.pdf",
	}))
	_, err = svc.Fetch(ctx, testRequestID, asUser(f.requester))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
