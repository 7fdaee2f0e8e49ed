package chat

import (
	"sync"
	"time"

	"github.com/kotonoha-app/kotonoha/internal/attachments"
)

// Listener observes the full session list after every mutation. The save
// path and the rendering layer both attach here.
type Listener func(sessions []Session)

// Store is the authoritative holder of all chat sessions. Every mutation is
// a pure functional replace: a new top-level slice with new values for the
// touched session and message, never in-place edits, so observers relying on
// reference comparison see every change. Operations targeting an unknown
// chat or message id are silent no-ops; a stale reference must never crash
// the streaming flow.
type Store struct {
	mu        sync.RWMutex
	sessions  []Session
	listeners []Listener
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a listener for post-mutation snapshots.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load replaces the whole session list, e.g. from persistence at startup.
func (s *Store) Load(sessions []Session) {
	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
}

// Snapshot returns the current session list. The slice is the store's
// immutable current value; callers must not modify it.
func (s *Store) Snapshot() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// Get returns a session by id.
func (s *Store) Get(chatID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.ID == chatID {
			return sess, true
		}
	}
	return Session{}, false
}

// NewChat prepends a session to the chat list.
func (s *Store) NewChat(sess Session) {
	s.mu.Lock()
	next := make([]Session, 0, len(s.sessions)+1)
	next = append(next, sess)
	next = append(next, s.sessions...)
	s.sessions = next
	snapshot := s.sessions
	s.mu.Unlock()
	s.notify(snapshot)
}

// Prune removes a session from the chat list. Missing ids are no-ops.
func (s *Store) Prune(chatID string) {
	s.mu.Lock()
	found := false
	next := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.ID == chatID {
			found = true
			continue
		}
		next = append(next, sess)
	}
	if !found {
		s.mu.Unlock()
		return
	}
	s.sessions = next
	snapshot := s.sessions
	s.mu.Unlock()
	s.notify(snapshot)
}

// AppendMessage appends a message to a chat and refreshes the preview.
// Appending an id that already exists in the chat is a no-op, which makes
// send-path re-entry harmless.
func (s *Store) AppendMessage(chatID string, msg Message) {
	s.update(chatID, func(sess Session) (Session, bool) {
		for _, m := range sess.Messages {
			if m.ID == msg.ID {
				return sess, false
			}
		}
		msgs := make([]Message, 0, len(sess.Messages)+1)
		msgs = append(msgs, sess.Messages...)
		msgs = append(msgs, msg)
		sess.Messages = msgs
		sess.LastMessage = msg.Content
		return sess, true
	})
}

// ReplaceMessages swaps a chat's entire message list, e.g. on edit
// truncation or send rollback.
func (s *Store) ReplaceMessages(chatID string, msgs []Message) {
	s.update(chatID, func(sess Session) (Session, bool) {
		sess.Messages = msgs
		if len(msgs) > 0 {
			sess.LastMessage = msgs[len(msgs)-1].Content
		} else {
			sess.LastMessage = ""
		}
		return sess, true
	})
}

// SetTitle replaces a chat's title.
func (s *Store) SetTitle(chatID, title string) {
	s.update(chatID, func(sess Session) (Session, bool) {
		sess.Title = title
		return sess, true
	})
}

// SetMessageContent replaces one message's content and derives its status:
// sending until content exists, sent after.
func (s *Store) SetMessageContent(chatID, messageID, content string) {
	s.update(chatID, func(sess Session) (Session, bool) {
		return replaceMessage(sess, messageID, func(m Message) Message {
			m.Content = content
			m.Status = statusFor(content)
			return m
		}, content)
	})
}

// SetMessageThinking replaces one message's Thinking sub-record.
func (s *Store) SetMessageThinking(chatID, messageID string, th Thinking) {
	s.update(chatID, func(sess Session) (Session, bool) {
		return replaceMessage(sess, messageID, func(m Message) Message {
			m.Thinking = &th
			return m
		}, "")
	})
}

// SetMessageContentAndThinking replaces content and Thinking in one write.
// This is the coalescer's flush primitive: one store mutation per redraw
// cycle regardless of fragment rate.
func (s *Store) SetMessageContentAndThinking(chatID, messageID, content string, th Thinking) {
	s.update(chatID, func(sess Session) (Session, bool) {
		return replaceMessage(sess, messageID, func(m Message) Message {
			m.Content = content
			m.Status = statusFor(content)
			m.Thinking = &th
			return m
		}, content)
	})
}

// SetMessageAttachments replaces one message's attachment list, used after
// durable persistence assigns storage ids.
func (s *Store) SetMessageAttachments(chatID, messageID string, atts []attachments.Attachment) {
	s.update(chatID, func(sess Session) (Session, bool) {
		return replaceMessage(sess, messageID, func(m Message) Message {
			m.Attachments = atts
			return m
		}, "")
	})
}

// SetMessageStatus replaces one message's lifecycle status.
func (s *Store) SetMessageStatus(chatID, messageID string, status Status) {
	s.update(chatID, func(sess Session) (Session, bool) {
		return replaceMessage(sess, messageID, func(m Message) Message {
			m.Status = status
			return m
		}, "")
	})
}

// update applies fn to the target session via copy-on-write. fn returns the
// replacement session and whether anything changed.
func (s *Store) update(chatID string, fn func(Session) (Session, bool)) {
	s.mu.Lock()
	idx := -1
	for i, sess := range s.sessions {
		if sess.ID == chatID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	replacement, changed := fn(s.sessions[idx])
	if !changed {
		s.mu.Unlock()
		return
	}
	replacement.UpdatedAt = time.Now()

	next := make([]Session, len(s.sessions))
	copy(next, s.sessions)
	next[idx] = replacement
	s.sessions = next
	snapshot := s.sessions
	s.mu.Unlock()
	s.notify(snapshot)
}

// replaceMessage rebuilds the message list with fn applied to the target
// message. Unknown message ids leave the session untouched. preview, when
// non-empty, refreshes the session's denormalized last-message string.
func replaceMessage(sess Session, messageID string, fn func(Message) Message, preview string) (Session, bool) {
	idx := -1
	for i, m := range sess.Messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sess, false
	}

	msgs := make([]Message, len(sess.Messages))
	copy(msgs, sess.Messages)
	msgs[idx] = fn(msgs[idx])
	sess.Messages = msgs
	if preview != "" {
		sess.LastMessage = preview
	}
	return sess, true
}

func statusFor(content string) Status {
	if content == "" {
		return StatusSending
	}
	return StatusSent
}

func (s *Store) notify(snapshot []Session) {
	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	for _, l := range listeners {
		l(snapshot)
	}
}
