package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kotonoha-app/kotonoha/internal/attachments"
	"github.com/kotonoha-app/kotonoha/internal/llm"
	"github.com/kotonoha-app/kotonoha/internal/models"
)

// SendInput carries everything one send needs. Session is the explicit
// provider/model selection; there is no ambient singleton to consult.
type SendInput struct {
	Text        string
	Attachments []attachments.Attachment
	Session     models.ProviderSession
	// WantThinking is the user's reasoning toggle. It only takes effect
	// when the resolved model supports it.
	WantThinking bool
	// LocalizedKeywords extends code-keyword detection beyond the built-in
	// English list.
	LocalizedKeywords []string
}

// failedSend remembers the exact payload of a failed send for retry.
type failedSend struct {
	chatID string
	input  SendInput
}

// Controller drives the message lifecycle: validate, append, resolve,
// encode, stream, coalesce. One outbound stream at a time, gated by the
// loading flag.
type Controller struct {
	store     *Store
	registry  *models.Registry
	services  map[llm.Provider]llm.Service
	pipeline  *attachments.Pipeline
	scheduler Scheduler
	reporter  Reporter
	logger    *log.Logger

	// OnSubstitute, when set, is told about stale-model corrections so the
	// caller can update persisted selection state.
	OnSubstitute func(models.ProviderSession)

	loading atomic.Bool

	mu         sync.Mutex
	cancel     context.CancelFunc
	currentID  string
	lastFailed *failedSend
}

// NewController wires the send path together.
func NewController(store *Store, registry *models.Registry, services map[llm.Provider]llm.Service, pipeline *attachments.Pipeline, scheduler Scheduler, reporter Reporter, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		store:     store,
		registry:  registry,
		services:  services,
		pipeline:  pipeline,
		scheduler: scheduler,
		reporter:  reporter,
		logger:    logger,
	}
}

// Loading reports whether a stream is in flight.
func (c *Controller) Loading() bool {
	return c.loading.Load()
}

// CurrentChat returns the active chat id, empty when none is selected.
func (c *Controller) CurrentChat() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// SelectChat switches the active chat. Unknown ids clear the selection.
func (c *Controller) SelectChat(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.store.Get(chatID); !ok {
		c.currentID = ""
		return
	}
	c.currentID = chatID
}

// Stop aborts the active stream. Fragment delivery ends, the loading flag
// resets immediately, and buffered-but-unflushed content is dropped.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Send runs one full message lifecycle. It blocks until the stream finishes
// or fails; callers wanting concurrency run it in a goroutine and use Stop.
// Empty input (no text, no attachments) is a silent no-op.
func (c *Controller) Send(ctx context.Context, in SendInput) error {
	if strings.TrimSpace(in.Text) == "" && len(in.Attachments) == 0 {
		return nil
	}
	if !c.loading.CompareAndSwap(false, true) {
		return nil
	}
	defer c.loading.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	userMsg := NewMessage(in.Text, llm.RoleUser, in.Attachments)
	userMsg.Status = StatusSent

	chatID := c.ensureChat(ctx, userMsg, in)
	preSend, _ := c.store.Get(chatID)
	c.store.AppendMessage(chatID, userMsg)

	if err := c.run(ctx, chatID, userMsg.ID, in); err != nil {
		c.rollback(ctx, chatID, preSend.Messages, in, err)
		return err
	}
	return nil
}

// Edit truncates the chat after the edited user message and re-enters the
// send flow with the new content.
func (c *Controller) Edit(ctx context.Context, chatID, messageID, newText string, in SendInput) error {
	sess, ok := c.store.Get(chatID)
	if !ok {
		return nil
	}
	idx := -1
	for i, m := range sess.Messages {
		if m.ID == messageID && m.Role == llm.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	truncated := make([]Message, idx)
	copy(truncated, sess.Messages[:idx])
	c.store.ReplaceMessages(chatID, truncated)

	c.mu.Lock()
	c.currentID = chatID
	c.mu.Unlock()

	in.Text = newText
	in.Attachments = sess.Messages[idx].Attachments
	return c.Send(ctx, in)
}

// Retry replays the last failed send verbatim. No-op when nothing failed.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	failed := c.lastFailed
	c.lastFailed = nil
	if failed != nil {
		c.currentID = failed.chatID
	}
	c.mu.Unlock()
	if failed == nil {
		return nil
	}
	return c.Send(ctx, failed.input)
}

// ensureChat returns the active chat id, creating a chat around the user
// message when none is selected. Creation also kicks off background title
// generation, which never blocks the stream.
func (c *Controller) ensureChat(ctx context.Context, userMsg Message, in SendInput) string {
	c.mu.Lock()
	chatID := c.currentID
	c.mu.Unlock()
	if _, ok := c.store.Get(chatID); ok && chatID != "" {
		return chatID
	}

	sess := NewSession(userMsg)
	sess.Messages = nil // the send path appends it with the idempotency guard
	c.store.NewChat(sess)
	c.mu.Lock()
	c.currentID = sess.ID
	c.mu.Unlock()

	go c.generateTitle(context.WithoutCancel(ctx), sess.ID, in)
	return sess.ID
}

func (c *Controller) generateTitle(ctx context.Context, chatID string, in SendInput) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	svc, ok := c.services[in.Session.Provider]
	if !ok {
		c.store.SetTitle(chatID, FallbackTitle(in.Text))
		return
	}
	title, err := svc.GenerateTitle(ctx, in.Text)
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			c.logger.Warn("title generation failed", "chat", chatID, "err", err)
		}
		title = FallbackTitle(in.Text)
	}
	c.store.SetTitle(chatID, title)
}

// run performs the body of a send: resolve, encode, placeholder, stream,
// then durable attachment persistence written back onto the user message.
func (c *Controller) run(ctx context.Context, chatID, userMsgID string, in SendInput) error {
	svc, ok := c.services[in.Session.Provider]
	if !ok {
		return &ChatError{Category: CategoryValidation, Err: llm.ErrAPIKeyMissing}
	}

	res := c.registry.Resolve(in.Session, models.ResolveInput{
		WantThinking:    in.WantThinking,
		HasCodeKeywords: models.DetectCodeKeywords(in.Text, in.LocalizedKeywords),
		HasURL:          models.DetectURL(in.Text),
	})
	if res.Substituted && c.OnSubstitute != nil {
		c.OnSubstitute(models.ProviderSession{Provider: in.Session.Provider, Model: res.Options.Model})
	}

	caps := c.registry.Capabilities(res.Options.Model)
	if err := c.pipeline.Validate(caps.Files, in.Attachments); err != nil {
		return &ChatError{Category: CategoryValidation, Err: err}
	}
	encoded := c.pipeline.Encode(ctx, in.Attachments)

	assistant := NewMessage("", llm.RoleAssistant, nil)
	c.store.AppendMessage(chatID, assistant)

	coalescer := NewCoalescer(c.store, c.scheduler, chatID, assistant.ID)
	mux := NewMux(coalescer.Consume)
	history := c.history(chatID, assistant.ID)

	err := c.invoke(ctx, svc, history, encoded.Payloads, mux, res.Options)
	if err != nil {
		coalescer.Cancel()
		// A user-initiated stop ends fragment delivery without unwinding
		// the exchange: flushed content stays, unflushed content is
		// dropped, and no error surfaces.
		if !errors.Is(err, context.Canceled) {
			return &ChatError{Category: CategoryTransport, Err: err}
		}
		c.store.SetMessageStatus(chatID, assistant.ID, StatusSent)
	}

	if len(in.Attachments) > 0 {
		persisted := c.pipeline.Persist(context.WithoutCancel(ctx), chatID, in.Attachments)
		c.store.SetMessageAttachments(chatID, userMsgID, persisted)
	}
	return nil
}

// invoke picks the provider call shape from the resolved options: dual
// callbacks when native thinking is on, single callback otherwise. The
// sentinel parser inside the mux makes the single-callback path safe for
// providers that interleave reasoning on the text channel.
func (c *Controller) invoke(ctx context.Context, svc llm.Service, history []llm.ChatMessage, files []llm.FilePayload, mux *Mux, opts llm.RequestOptions) error {
	thinking := opts.Gemini != nil && opts.Gemini.EnableThinking
	switch {
	case len(files) > 0 && thinking:
		return svc.StreamMessageWithFilesAndThinking(ctx, history, files, mux.OnThought, mux.OnAnswer, opts)
	case len(files) > 0:
		return svc.StreamMessageWithFiles(ctx, history, files, mux.OnChunk, opts)
	case thinking:
		return svc.StreamMessageWithThinking(ctx, history, mux.OnThought, mux.OnAnswer, opts)
	default:
		return svc.StreamMessage(ctx, history, mux.OnChunk, opts)
	}
}

// history converts the chat transcript into provider turns, excluding the
// assistant placeholder the stream is about to fill.
func (c *Controller) history(chatID, excludeID string) []llm.ChatMessage {
	sess, _ := c.store.Get(chatID)
	out := make([]llm.ChatMessage, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		if m.ID == excludeID {
			continue
		}
		out = append(out, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// rollback restores the pre-send message list, remembers the payload for
// retry, and reports the failure.
func (c *Controller) rollback(ctx context.Context, chatID string, preSend []Message, in SendInput, err error) {
	c.store.ReplaceMessages(chatID, preSend)

	cerr, ok := err.(*ChatError)
	if !ok {
		cerr = &ChatError{Category: CategoryTransport, Err: err}
	}

	var retry func()
	if cerr.Retryable() {
		c.mu.Lock()
		c.lastFailed = &failedSend{chatID: chatID, input: in}
		c.mu.Unlock()
		retry = func() {
			if rerr := c.Retry(context.WithoutCancel(ctx)); rerr != nil {
				c.logger.Error("retry failed", "chat", chatID, "err", rerr)
			}
		}
	}

	c.logger.Error("send failed", "chat", chatID, "provider", in.Session.Provider, "err", cerr)
	if c.reporter != nil {
		c.reporter.Report(Notification{
			Err:      cerr,
			Retry:    retry,
			ChatID:   chatID,
			Provider: string(in.Session.Provider),
		})
	}
}
