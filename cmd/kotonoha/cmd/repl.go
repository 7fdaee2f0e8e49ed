package cmd

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kotonoha-app/kotonoha/internal/app"
	"github.com/kotonoha-app/kotonoha/internal/attachments"
	"github.com/kotonoha-app/kotonoha/internal/chat"
	"github.com/kotonoha-app/kotonoha/internal/llm"
	"github.com/kotonoha-app/kotonoha/internal/markdown"
)

// md styles completed answers when replaying a transcript. Nil when the
// terminal renderer could not start; output falls back to plain text.
var md *markdown.Renderer

// renderer prints streamed assistant output incrementally as store
// snapshots arrive from coalesced flushes.
type renderer struct {
	mu           sync.Mutex
	chatID       string
	msgID        string
	printed      int
	thinkingOpen bool
	thinkingDone bool
}

func (r *renderer) track(chatID string) {
	r.mu.Lock()
	r.chatID = chatID
	r.msgID = ""
	r.printed = 0
	r.thinkingOpen = false
	r.thinkingDone = false
	r.mu.Unlock()
}

func (r *renderer) observe(sessions []chat.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sess *chat.Session
	for i := range sessions {
		if sessions[i].ID == r.chatID {
			sess = &sessions[i]
			break
		}
	}
	if sess == nil || len(sess.Messages) == 0 {
		return
	}
	last := sess.Messages[len(sess.Messages)-1]
	if last.Role != llm.RoleAssistant {
		return
	}
	if last.ID != r.msgID {
		r.msgID = last.ID
		r.printed = 0
		r.thinkingOpen = false
		r.thinkingDone = false
	}

	if last.Thinking != nil && !r.thinkingOpen {
		r.thinkingOpen = true
		fmt.Print("◈ thinking…\n")
	}
	if last.Thinking != nil && last.Thinking.ThinkingComplete && !r.thinkingDone {
		r.thinkingDone = true
		fmt.Printf("◈ thought for %ds\n\n", last.Thinking.ThinkingTime)
	}
	if len(last.Content) > r.printed {
		fmt.Print(last.Content[r.printed:])
		r.printed = len(last.Content)
	}
}

// settle waits for the final frame-aligned flush after a stream ends.
func settle() {
	time.Sleep(3 * app.DefaultFrameInterval)
}

func runOnce(ctx context.Context, prompt string) {
	r := &renderer{}
	kotonohaApp.Store.Subscribe(r.observe)

	done := make(chan struct{})
	go func() {
		// The chat id exists as soon as the controller creates it; poll
		// briefly so the renderer attaches before the first flush.
		for i := 0; i < 100; i++ {
			if id := kotonohaApp.Controller.CurrentChat(); id != "" {
				r.track(id)
				r.observe(kotonohaApp.Store.Snapshot())
				break
			}
			time.Sleep(time.Millisecond)
		}
		close(done)
	}()

	err := kotonohaApp.Controller.Send(ctx, sendInput(prompt, nil))
	<-done
	settle()
	r.observe(kotonohaApp.Store.Snapshot())
	fmt.Println()
	if err != nil {
		os.Exit(1)
	}
}

func sendInput(text string, atts []attachments.Attachment) chat.SendInput {
	return chat.SendInput{
		Text:         text,
		Attachments:  atts,
		Session:      kotonohaApp.Session(),
		WantThinking: kotonohaApp.Selection.Thinking,
	}
}

func runInteractive(ctx context.Context) {
	fmt.Printf("kotonoha — %s/%s (type /help for commands)\n\n",
		kotonohaApp.Selection.Provider, kotonohaApp.Selection.Model)

	if r, err := markdown.NewRenderer(100); err == nil {
		md = r
	} else {
		logger.Debug("markdown renderer unavailable", "err", err)
	}

	r := &renderer{}
	kotonohaApp.Store.Subscribe(r.observe)

	// Transport failures surface here with a retry affordance.
	notes, unsubscribe := kotonohaApp.Broker.Subscribe()
	defer unsubscribe()
	go func() {
		for ev := range notes {
			if ev.Payload.Err.Retryable() {
				fmt.Printf("\n! %v (use /retry)\n", ev.Payload.Err.Unwrap())
			} else {
				fmt.Printf("\n! %v\n", ev.Payload.Err.Unwrap())
			}
		}
	}()

	var pending []attachments.Attachment
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := command(ctx, r, line, &pending); quit {
				return
			}
			continue
		}

		send(ctx, r, line, pending)
		pending = nil
	}
}

func send(ctx context.Context, r *renderer, text string, atts []attachments.Attachment) {
	errCh := make(chan error, 1)
	go func() { errCh <- kotonohaApp.Controller.Send(ctx, sendInput(text, atts)) }()

	for i := 0; i < 100; i++ {
		if id := kotonohaApp.Controller.CurrentChat(); id != "" {
			r.track(id)
			break
		}
		time.Sleep(time.Millisecond)
	}

	<-errCh
	settle()
	r.observe(kotonohaApp.Store.Snapshot())
	fmt.Println()
}

func command(ctx context.Context, r *renderer, line string, pending *[]attachments.Attachment) bool {
	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Print(`/new              start a new chat
/chats            list saved chats
/open <n>         switch to chat n
/delete <n>       delete chat n
/models           list models for the active provider
/model <id>       switch model
/provider <p>     switch provider (gemini, groq)
/think on|off     toggle reasoning display
/attach <path>    attach a file to the next message
/edit <text>      rewrite the last question and regenerate
/retry            retry the last failed send
/quit             exit
`)
	case "/new":
		kotonohaApp.Controller.SelectChat("")
		fmt.Println("started a new chat")
	case "/chats":
		for i, sess := range kotonohaApp.Store.Snapshot() {
			marker := " "
			if sess.ID == kotonohaApp.Controller.CurrentChat() {
				marker = "*"
			}
			fmt.Printf("%s %2d  %s\n", marker, i+1, sess.Title)
		}
	case "/open":
		if sess, ok := nthChat(arg); ok {
			kotonohaApp.Controller.SelectChat(sess.ID)
			r.track(sess.ID)
			for _, m := range sess.Messages {
				if m.Role != llm.RoleAssistant {
					fmt.Printf("> %s\n", m.Content)
					continue
				}
				body := m.Content
				if md != nil {
					if styled, err := md.Render(body); err == nil {
						body = styled
					}
				}
				fmt.Print(body)
				if !strings.HasSuffix(body, "\n") {
					fmt.Println()
				}
			}
		}
	case "/delete":
		if sess, ok := nthChat(arg); ok {
			kotonohaApp.DeleteChat(ctx, sess.ID)
			fmt.Println("deleted", sess.Title)
		}
	case "/models":
		session := kotonohaApp.Session()
		for _, m := range kotonohaApp.Registry.ModelsFor(session.Provider) {
			marker := " "
			if m.ID == session.Model {
				marker = "*"
			}
			fmt.Printf("%s %s  (%s)\n", marker, m.ID, m.Name)
		}
	case "/model":
		if arg == "" {
			fmt.Println(kotonohaApp.Selection.Model)
			break
		}
		if _, ok := kotonohaApp.Registry.Lookup(arg); !ok {
			fmt.Println("unknown model:", arg)
			break
		}
		if err := kotonohaApp.Selection.UpdateModel(kotonohaApp.Selection.Provider, arg); err != nil {
			logger.Warn("failed to save selection", "err", err)
		}
	case "/provider":
		p := llm.Provider(arg)
		def, ok := kotonohaApp.Registry.DefaultModel(p)
		if !ok {
			fmt.Println("unknown provider:", arg)
			break
		}
		if err := kotonohaApp.Selection.UpdateModel(arg, def); err != nil {
			logger.Warn("failed to save selection", "err", err)
		}
		fmt.Printf("switched to %s/%s\n", arg, def)
	case "/think":
		kotonohaApp.Selection.Thinking = arg == "on"
	case "/attach":
		att, err := loadAttachment(arg)
		if err != nil {
			fmt.Println("cannot attach:", err)
			break
		}
		*pending = append(*pending, att)
		fmt.Printf("attached %s (%s)\n", att.Name, att.MimeType)
	case "/edit":
		editLast(ctx, r, arg)
	case "/retry":
		if err := kotonohaApp.Controller.Retry(ctx); err != nil {
			fmt.Println("retry failed:", err)
		} else {
			settle()
			r.observe(kotonohaApp.Store.Snapshot())
			fmt.Println()
		}
	default:
		fmt.Println("unknown command; /help lists commands")
	}
	return false
}

func nthChat(arg string) (chat.Session, bool) {
	n, err := strconv.Atoi(arg)
	snap := kotonohaApp.Store.Snapshot()
	if err != nil || n < 1 || n > len(snap) {
		fmt.Println("no such chat")
		return chat.Session{}, false
	}
	return snap[n-1], true
}

func editLast(ctx context.Context, r *renderer, newText string) {
	chatID := kotonohaApp.Controller.CurrentChat()
	sess, ok := kotonohaApp.Store.Get(chatID)
	if !ok || newText == "" {
		fmt.Println("nothing to edit")
		return
	}
	var lastUser string
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == llm.RoleUser {
			lastUser = sess.Messages[i].ID
			break
		}
	}
	if lastUser == "" {
		fmt.Println("nothing to edit")
		return
	}

	r.track(chatID)
	if err := kotonohaApp.Controller.Edit(ctx, chatID, lastUser, newText, sendInput(newText, nil)); err != nil {
		return
	}
	settle()
	r.observe(kotonohaApp.Store.Snapshot())
	fmt.Println()
}

func loadAttachment(path string) (attachments.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return attachments.Attachment{}, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return attachments.Attachment{
		ID:       uuid.NewString(),
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     int64(len(data)),
		Ref:      attachments.BlobRef{Bytes: data},
	}, nil
}
