package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
)

func TestLocalDocumentStore_SaveReadDelete(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, zap.NewNop())

	path, err := store.Save(ctx, "1F1000001", "e-ticket.pdf", []byte("PDF"))
	require.NoError(t, err)
	assert.Equal(t, "tickets/1F1000001/e-ticket.pdf", path)

	onDisk, err := os.ReadFile(filepath.Join(baseDir, "tickets", "1F1000001", "e-ticket.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("PDF"), onDisk)

	content, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("PDF"), content)

	require.NoError(t, store.Delete(ctx, path))
	require.NoError(t, store.Delete(ctx, path))

	_, err = store.Read(ctx, path)
	assert.ErrorIs(t, err, port.ErrDocumentNotFound)
}

func TestLocalDocumentStore_SanitizesTraversal(t *testing.T) {
	ctx := context.Background()
	store := NewLocalDocumentStore(t.TempDir(), zap.NewNop())

	path, err := store.Save(ctx, "../1F1000001", "../../etc/passwd.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "tickets/1F1000001/passwd.pdf", path)

	_, err = store.Read(ctx, "../outside.pdf")
	assert.ErrorIs(t, err, ErrPathEscapes)

	_, err = store.Save(ctx, "1F1000001", "../..", []byte("x"))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "ticket.pdf", "ticket.pdf"},
		{"uppercase extension", "Ticket.PDF", "Ticket.pdf"},
		{"spaces dropped", "my ticket (1).png", "myticket1.png"},
		{"windows path", `C:\Users\ada\ticket.jpg`, "ticket.jpg"},
		{"only dots", "...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}
