package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotonoha-app/kotonoha/internal/attachments"
	"github.com/kotonoha-app/kotonoha/internal/llm"
)

func seedStore(t *testing.T) (*Store, Session) {
	t.Helper()
	s := NewStore()
	sess := NewSession(NewMessage("first question", llm.RoleUser, nil))
	s.NewChat(sess)
	return s, sess
}

func TestAppendMessageIdempotent(t *testing.T) {
	s, sess := seedStore(t)
	msg := NewMessage("again", llm.RoleUser, nil)

	s.AppendMessage(sess.ID, msg)
	s.AppendMessage(sess.ID, msg)

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Len(t, got.Messages, 2)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	s, sess := seedStore(t)
	before := s.Snapshot()

	s.SetTitle("nope", "x")
	s.SetMessageContent(sess.ID, "nope", "x")
	s.Prune("nope")
	s.AppendMessage("nope", NewMessage("x", llm.RoleUser, nil))

	assert.Equal(t, before, s.Snapshot())
}

func TestCopyOnWrite(t *testing.T) {
	s, sess := seedStore(t)
	before := s.Snapshot()
	beforeMsgs := before[0].Messages

	s.SetMessageContent(sess.ID, sess.Messages[0].ID, "rewritten")

	after := s.Snapshot()
	assert.Equal(t, "first question", beforeMsgs[0].Content, "old snapshot must be untouched")
	assert.Equal(t, "rewritten", after[0].Messages[0].Content)
	assert.Equal(t, StatusSent, after[0].Messages[0].Status)
}

func TestSetMessageContentDerivesStatus(t *testing.T) {
	s, sess := seedStore(t)
	id := sess.Messages[0].ID

	s.SetMessageContent(sess.ID, id, "")
	got, _ := s.Get(sess.ID)
	assert.Equal(t, StatusSending, got.Messages[0].Status)

	s.SetMessageContent(sess.ID, id, "hi")
	got, _ = s.Get(sess.ID)
	assert.Equal(t, StatusSent, got.Messages[0].Status)
	assert.Equal(t, "hi", got.LastMessage)
}

func TestSetMessageContentAndThinkingIsOneNotification(t *testing.T) {
	s, sess := seedStore(t)
	id := sess.Messages[0].ID

	var notifications int
	s.Subscribe(func([]Session) { notifications++ })

	s.SetMessageContentAndThinking(sess.ID, id, "answer", Thinking{
		ThoughtSummary: "because", ThinkingTime: 2, ThinkingComplete: true,
	})

	assert.Equal(t, 1, notifications)
	got, _ := s.Get(sess.ID)
	require.NotNil(t, got.Messages[0].Thinking)
	assert.Equal(t, "because", got.Messages[0].Thinking.ThoughtSummary)
	assert.True(t, got.Messages[0].Thinking.ThinkingComplete)
}

func TestSetMessageAttachmentsCopiesOnWrite(t *testing.T) {
	s, sess := seedStore(t)
	msgID := sess.Messages[0].ID
	before, _ := s.Get(sess.ID)

	s.SetMessageAttachments(sess.ID, msgID, []attachments.Attachment{
		{ID: "att-1", Name: "a.png", MimeType: "image/png", StorageID: "blob-1"},
	})

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	require.Len(t, got.Messages[0].Attachments, 1)
	assert.True(t, got.Messages[0].Attachments[0].Persistent())
	assert.Empty(t, before.Messages[0].Attachments, "old snapshot untouched")

	// Unknown ids stay no-ops.
	s.SetMessageAttachments(sess.ID, "nope", nil)
	again, _ := s.Get(sess.ID)
	assert.Len(t, again.Messages[0].Attachments, 1)
}

func TestNewChatPrependsAndPruneRemoves(t *testing.T) {
	s, first := seedStore(t)
	second := NewSession(NewMessage("later chat", llm.RoleUser, nil))
	s.NewChat(second)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, second.ID, snap[0].ID, "newest chat comes first")

	s.Prune(second.ID)
	snap = s.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, first.ID, snap[0].ID)
}

func TestReplaceMessagesUpdatesPreview(t *testing.T) {
	s, sess := seedStore(t)

	s.ReplaceMessages(sess.ID, nil)
	got, _ := s.Get(sess.ID)
	assert.Empty(t, got.Messages)
	assert.Empty(t, got.LastMessage)
}
