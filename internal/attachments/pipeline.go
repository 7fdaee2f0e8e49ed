package attachments

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/kotonoha-app/kotonoha/internal/llm"
)

// Pipeline turns message attachments into provider payloads. It is a pure
// transform over its inputs; it never touches chat state.
type Pipeline struct {
	durable DurableStore
	logger  *log.Logger
}

// NewPipeline creates a pipeline. durable may be nil when persistence is
// disabled; encoding still works from in-memory references.
func NewPipeline(durable DurableStore, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{durable: durable, logger: logger}
}

// Result is the outcome of encoding one batch of attachments.
type Result struct {
	Payloads []llm.FilePayload
	Warnings []string
}

// Validate fails fast when attachments are present but the model cannot
// accept them.
func (p *Pipeline) Validate(supportsFiles bool, atts []Attachment) error {
	if len(atts) > 0 && !supportsFiles {
		return ErrFilesUnsupported
	}
	return nil
}

// Encode converts each attachment to a base64 payload triple, in fallback
// order: read a binary-backed reference directly, extract the payload of a
// self-contained reference, or warn and drop the file. One bad file never
// aborts the batch; its siblings still encode.
func (p *Pipeline) Encode(ctx context.Context, atts []Attachment) Result {
	var res Result
	for _, att := range atts {
		payload, ok := p.encodeOne(ctx, att)
		if !ok {
			warning := fmt.Sprintf("skipping attachment %q: no readable content", att.Name)
			p.logger.Warn("attachment dropped from request", "name", att.Name, "mime", att.MimeType)
			res.Warnings = append(res.Warnings, warning)
			continue
		}
		res.Payloads = append(res.Payloads, llm.FilePayload{
			Data:     payload,
			MimeType: att.MimeType,
			Name:     att.Name,
		})
	}
	return res
}

func (p *Pipeline) encodeOne(ctx context.Context, att Attachment) (string, bool) {
	switch ref := att.Ref.(type) {
	case BlobRef:
		if len(ref.Bytes) == 0 {
			return "", false
		}
		return base64.StdEncoding.EncodeToString(ref.Bytes), true
	case DataRef:
		return payloadFromURI(ref.URI)
	}

	// No in-memory reference; a persisted attachment can still be
	// rehydrated from the durable store.
	if att.StorageID != "" && p.durable != nil {
		uri, err := p.durable.Resolve(ctx, att.StorageID)
		if err != nil {
			p.logger.Warn("durable resolve failed", "storageId", att.StorageID, "err", err)
			return "", false
		}
		return payloadFromURI(uri)
	}
	return "", false
}

// Persist writes binary-backed attachments to the durable store and returns
// copies carrying their storage ids. Failures leave the attachment
// unpersisted but otherwise intact.
func (p *Pipeline) Persist(ctx context.Context, chatID string, atts []Attachment) []Attachment {
	if p.durable == nil {
		return atts
	}
	out := make([]Attachment, len(atts))
	copy(out, atts)
	for i, att := range out {
		blob, ok := att.Ref.(BlobRef)
		if !ok || att.Persistent() {
			continue
		}
		id, err := p.durable.Store(ctx, blob.Bytes, att.MimeType, chatID)
		if err != nil {
			p.logger.Warn("attachment persist failed", "name", att.Name, "err", err)
			continue
		}
		out[i].StorageID = id
	}
	return out
}
