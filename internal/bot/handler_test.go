package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"certsentry/internal/history"
)

// MockContext definition for internal use
type MockContext struct {
	tele.Context
	SenderID   int64
	TextVal    string
	PayloadVal string
	DocVal     *tele.Document
	SentMsg    interface{}
}

func (m *MockContext) Sender() *tele.User {
	return &tele.User{ID: m.SenderID, FirstName: "Tester"}
}

func (m *MockContext) Text() string {
	return m.TextVal
}

func (m *MockContext) Message() *tele.Message {
	return &tele.Message{Payload: m.PayloadVal, Document: m.DocVal}
}

func (m *MockContext) Send(what interface{}, opts ...interface{}) error {
	m.SentMsg = what
	return nil
}

type MockTaskQueue struct {
	mock.Mock
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, userID int64, videoURL string) (uuid.UUID, error) {
	args := m.Called(ctx, userID, videoURL)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func testBot(t *testing.T, tasks TaskQueue) *Bot {
	t.Helper()

	db, err := history.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Bot{history: db, tasks: tasks, allowed: allowList([]int64{42})}
}

func TestHandleMyID(t *testing.T) {
	b := testBot(t, nil)

	ctx := &MockContext{SenderID: 42}
	require.NoError(t, b.handleMyID(ctx))

	assert.Contains(t, ctx.SentMsg.(string), "Your User ID: 42")
}

func TestRestricted(t *testing.T) {
	b := testBot(t, nil)

	called := false
	h := b.restricted(func(c tele.Context) error {
		called = true
		return nil
	})

	ctx := &MockContext{SenderID: 999}
	require.NoError(t, h(ctx))
	assert.False(t, called, "handler must not run for unknown users")
	assert.Nil(t, ctx.SentMsg, "unknown users get silence, not errors")

	require.NoError(t, h(&MockContext{SenderID: 42}))
	assert.True(t, called)
}

func TestHandleTextButtons(t *testing.T) {
	b := testBot(t, nil)

	t.Run("Certificate Prompt", func(t *testing.T) {
		ctx := &MockContext{SenderID: 42, TextVal: btnCertificate}
		require.NoError(t, b.handleText(ctx))
		assert.Contains(t, ctx.SentMsg.(string), ".cer, .crt, .pem, .der")
	})

	t.Run("Settings Placeholder", func(t *testing.T) {
		ctx := &MockContext{SenderID: 42, TextVal: btnSettings}
		require.NoError(t, b.handleText(ctx))
		assert.Contains(t, ctx.SentMsg.(string), "under construction")
	})

	t.Run("Free Text Ignored", func(t *testing.T) {
		ctx := &MockContext{SenderID: 42, TextVal: "hello there"}
		require.NoError(t, b.handleText(ctx))
		assert.Nil(t, ctx.SentMsg)
	})
}

func TestHandleStatus(t *testing.T) {
	b := testBot(t, nil)
	require.NoError(t, b.history.Record(42, "bundle.zip", 3, 1))

	ctx := &MockContext{SenderID: 42}
	require.NoError(t, b.handleStatus(ctx))

	msg := ctx.SentMsg.(string)
	assert.Contains(t, msg, "Reports: 1")
	assert.Contains(t, msg, "Certificates analyzed: 3")
	assert.Contains(t, msg, "Expired found: 1")
}

func TestHandleDownload(t *testing.T) {
	t.Run("Usage", func(t *testing.T) {
		b := testBot(t, nil)
		ctx := &MockContext{SenderID: 42, PayloadVal: ""}
		require.NoError(t, b.handleDownload(ctx))
		assert.Contains(t, ctx.SentMsg.(string), "Usage: /download")
	})

	t.Run("Invalid URL", func(t *testing.T) {
		b := testBot(t, nil)
		ctx := &MockContext{SenderID: 42, PayloadVal: "not a url"}
		require.NoError(t, b.handleDownload(ctx))
		assert.Contains(t, ctx.SentMsg.(string), "valid video URL")
	})

	t.Run("Queue Not Configured", func(t *testing.T) {
		b := testBot(t, nil)
		ctx := &MockContext{SenderID: 42, PayloadVal: "https://example.com/v"}
		require.NoError(t, b.handleDownload(ctx))
		assert.Contains(t, ctx.SentMsg.(string), "not configured")
	})

	t.Run("Queued", func(t *testing.T) {
		q := new(MockTaskQueue)
		q.On("Enqueue", mock.Anything, int64(42), "https://example.com/v").Return(uuid.New(), nil)

		b := testBot(t, q)
		ctx := &MockContext{SenderID: 42, PayloadVal: "https://example.com/v"}
		require.NoError(t, b.handleDownload(ctx))

		assert.Contains(t, ctx.SentMsg.(string), "⏳ Queued")
		q.AssertExpectations(t)
	})
}

func TestHandleDocumentRejections(t *testing.T) {
	b := testBot(t, nil)

	t.Run("Too Large", func(t *testing.T) {
		doc := &tele.Document{FileName: "huge.zip"}
		doc.FileSize = MaxFileSize + 1
		ctx := &MockContext{SenderID: 42, DocVal: doc}
		require.NoError(t, b.handleDocument(ctx))
		assert.Contains(t, ctx.SentMsg.(string), "File is too large")
		assert.Contains(t, ctx.SentMsg.(string), "20 MB")
	})

	t.Run("Wrong Format", func(t *testing.T) {
		doc := &tele.Document{FileName: "notes.txt"}
		doc.FileSize = 100
		ctx := &MockContext{SenderID: 42, DocVal: doc}
		require.NoError(t, b.handleDocument(ctx))

		msg := ctx.SentMsg.(string)
		assert.Contains(t, msg, "Unsupported file format")
		assert.True(t, strings.Contains(msg, ".zip"))
	})
}
