package attachments

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDurable struct {
	blobs map[string]string
	fail  bool
}

func (f *fakeDurable) Store(_ context.Context, data []byte, mimeType, _ string) (string, error) {
	if f.fail {
		return "", errors.New("disk full")
	}
	id := "blob-" + mimeType
	if f.blobs == nil {
		f.blobs = map[string]string{}
	}
	f.blobs[id] = DataURI(mimeType, base64.StdEncoding.EncodeToString(data))
	return id, nil
}

func (f *fakeDurable) Resolve(_ context.Context, id string) (string, error) {
	uri, ok := f.blobs[id]
	if !ok {
		return "", errors.New("not found")
	}
	return uri, nil
}

func (f *fakeDurable) DeleteByChat(context.Context, string) error { return nil }

func TestEncodePerFileFallbackIndependence(t *testing.T) {
	p := NewPipeline(nil, nil)
	batch := []Attachment{
		{Name: "a.png", MimeType: "image/png", Ref: BlobRef{Bytes: []byte("aaa")}},
		{Name: "broken.bin", MimeType: "application/octet-stream"}, // no ref at all
		{Name: "b.txt", MimeType: "text/plain", Ref: DataRef{URI: DataURI("text/plain", "YmJi")}},
	}

	res := p.Encode(context.Background(), batch)

	require.Len(t, res.Payloads, 2, "one bad file never aborts the batch")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "broken.bin")
	assert.Equal(t, "a.png", res.Payloads[0].Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("aaa")), res.Payloads[0].Data)
	assert.Equal(t, "YmJi", res.Payloads[1].Data)
}

func TestEncodeMalformedDataURIDropped(t *testing.T) {
	p := NewPipeline(nil, nil)
	res := p.Encode(context.Background(), []Attachment{
		{Name: "x", MimeType: "text/plain", Ref: DataRef{URI: "data:text/plain,not-base64"}},
	})
	assert.Empty(t, res.Payloads)
	assert.Len(t, res.Warnings, 1)
}

func TestEncodeRehydratesFromDurableStore(t *testing.T) {
	durable := &fakeDurable{}
	id, err := durable.Store(context.Background(), []byte("persisted"), "text/plain", "chat1")
	require.NoError(t, err)

	p := NewPipeline(durable, nil)
	res := p.Encode(context.Background(), []Attachment{
		{Name: "old.txt", MimeType: "text/plain", StorageID: id},
	})

	require.Len(t, res.Payloads, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("persisted")), res.Payloads[0].Data)
}

func TestValidate(t *testing.T) {
	p := NewPipeline(nil, nil)
	atts := []Attachment{{Name: "a"}}

	assert.ErrorIs(t, p.Validate(false, atts), ErrFilesUnsupported)
	assert.NoError(t, p.Validate(true, atts))
	assert.NoError(t, p.Validate(false, nil))
}

func TestPersistSurvivesStoreFailure(t *testing.T) {
	durable := &fakeDurable{fail: true}
	p := NewPipeline(durable, nil)

	in := []Attachment{{Name: "a", MimeType: "image/png", Ref: BlobRef{Bytes: []byte{1}}}}
	out := p.Persist(context.Background(), "chat1", in)

	require.Len(t, out, 1)
	assert.Empty(t, out[0].StorageID, "failure leaves the attachment unpersisted but intact")
	assert.Equal(t, "a", out[0].Name)
}

func TestPersistAssignsStorageIDs(t *testing.T) {
	durable := &fakeDurable{}
	p := NewPipeline(durable, nil)

	in := []Attachment{
		{Name: "a", MimeType: "image/png", Ref: BlobRef{Bytes: []byte{1}}},
		{Name: "b", MimeType: "text/plain", Ref: DataRef{URI: DataURI("text/plain", "eA==")}},
	}
	out := p.Persist(context.Background(), "chat1", in)

	assert.NotEmpty(t, out[0].StorageID)
	assert.Empty(t, out[1].StorageID, "only binary-backed refs are persisted")
}
