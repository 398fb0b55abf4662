package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenhe/lskyctl/internal/attachment"
	"github.com/chenhe/lskyctl/internal/lsky"
	"github.com/chenhe/lskyctl/internal/msg"
)

// fakeClient records calls instead of talking to a server.
type fakeClient struct {
	uploadResp  lsky.UploadResponse
	uploadErr   error
	deleteErr   error
	uploads     int
	deletes     int
	deletedKeys []string
}

func (f *fakeClient) Upload(_ context.Context, _ io.Reader, _ string, _ lsky.UploadOptions) (lsky.UploadResponse, error) {
	f.uploads++
	return f.uploadResp, f.uploadErr
}

func (f *fakeClient) Delete(_ context.Context, key string) error {
	f.deletes++
	f.deletedKeys = append(f.deletedKeys, key)
	return f.deleteErr
}

func newTestHandler(fake *fakeClient) *Handler {
	return &Handler{
		NewClient: func(_, _ string) Client {
			return fake
		},
	}
}

func lskyPolicy() *attachment.Policy {
	return &attachment.Policy{
		Metadata: attachment.Metadata{Name: "policy-a"},
		Spec:     attachment.PolicySpec{TemplateName: TemplateName},
	}
}

func lskyConfigMap() attachment.ConfigMap {
	return attachment.ConfigMap{Data: map[string]string{
		"default": `{"lskyUrl":"https://img.example.com","lskyToken":"tok"}`,
	}}
}

func TestHandler_Handles(t *testing.T) {
	h := New()

	tests := []struct {
		name     string
		policy   *attachment.Policy
		filename string
		want     bool
	}{
		{name: "matching policy", policy: lskyPolicy(), want: true},
		{name: "matching policy with image", policy: lskyPolicy(), filename: "a.png", want: true},
		{name: "nil policy", policy: nil, want: false},
		{
			name:   "foreign template",
			policy: &attachment.Policy{Spec: attachment.PolicySpec{TemplateName: "local"}},
			want:   false,
		},
		{name: "non image file", policy: lskyPolicy(), filename: "a.pdf", want: false},
		{name: "undetectable type", policy: lskyPolicy(), filename: "README", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Handles(tt.policy, tt.filename))
		})
	}
}

func TestHandler_Upload(t *testing.T) {
	fake := &fakeClient{
		uploadResp: lsky.UploadResponse{
			Key:      "k123",
			Name:     "cat.png",
			Size:     2, // KB
			Mimetype: "image/png",
			Links:    lsky.Links{URL: "https://img.example.com/cat.png"},
		},
	}
	h := newTestHandler(fake)

	att, err := h.Upload(context.Background(), UploadRequest{
		Policy:    lskyPolicy(),
		ConfigMap: lskyConfigMap(),
		File:      strings.NewReader("png-data"),
		Filename:  "cat.png",
	})
	require.NoError(t, err)
	require.NotNil(t, att)

	assert.NotEmpty(t, att.Metadata.GenerateName)
	assert.Equal(t, "cat.png", att.Spec.DisplayName)
	assert.Equal(t, "image/png", att.Spec.MediaType)
	assert.EqualValues(t, 2048, att.Spec.Size, "size is reported in KB and stored in bytes")
	require.NotNil(t, att.Status)
	assert.Equal(t, "https://img.example.com/cat.png", att.Status.Permalink)

	key, ok := att.ImageKey()
	require.True(t, ok)
	assert.Equal(t, "k123", key)
	link, ok := att.ImageLink()
	require.True(t, ok)
	assert.Equal(t, "https://img.example.com/cat.png", link)
	instance, ok := att.InstanceID()
	require.True(t, ok)
	assert.Equal(t, "img.example.com", instance)
}

func TestHandler_Upload_InferredMediaTypeWins(t *testing.T) {
	// With server-side image conversion the reported mimetype can be stale. The extension of
	// the public URL is authoritative.
	fake := &fakeClient{
		uploadResp: lsky.UploadResponse{
			Key:      "k1",
			Name:     "a",
			Mimetype: "application/octet-stream",
			Links:    lsky.Links{URL: "https://host/a.png"},
		},
	}
	h := newTestHandler(fake)

	att, err := h.Upload(context.Background(), UploadRequest{
		Policy:    lskyPolicy(),
		ConfigMap: lskyConfigMap(),
		File:      strings.NewReader("x"),
		Filename:  "a.jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.Spec.MediaType)
}

func TestHandler_Upload_NotHandled(t *testing.T) {
	fake := &fakeClient{}
	h := newTestHandler(fake)

	_, err := h.Upload(context.Background(), UploadRequest{
		Policy:    &attachment.Policy{Spec: attachment.PolicySpec{TemplateName: "other"}},
		ConfigMap: lskyConfigMap(),
		File:      strings.NewReader("x"),
		Filename:  "a.png",
	})
	assert.ErrorIs(t, err, ErrNotHandled)
	assert.Zero(t, fake.uploads)
}

func TestHandler_Upload_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "auth failure",
			err:     &lsky.APIError{StatusCode: http.StatusUnauthorized, Msg: "unauthenticated"},
			wantMsg: msg.AuthFailed,
		},
		{
			name:    "api disabled",
			err:     &lsky.APIError{StatusCode: http.StatusForbidden, Msg: "forbidden"},
			wantMsg: msg.APIDisabled,
		},
		{
			name:    "quota exceeded",
			err:     &lsky.APIError{StatusCode: http.StatusTooManyRequests, Msg: "slow down"},
			wantMsg: msg.QuotaExceeded,
		},
		{
			name:    "protocol error",
			err:     &lsky.APIError{StatusCode: http.StatusOK, Msg: "status=false: bad file"},
			wantMsg: "Lsky Pro API error (HTTP 200): status=false: bad file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeClient{uploadErr: tt.err}
			h := newTestHandler(fake)

			_, err := h.Upload(context.Background(), UploadRequest{
				Policy:    lskyPolicy(),
				ConfigMap: lskyConfigMap(),
				File:      strings.NewReader("x"),
				Filename:  "a.png",
			})

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.wantMsg, inputErr.Msg)
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	att := &attachment.Attachment{
		Metadata: attachment.Metadata{
			Name: "att-1",
			Annotations: map[string]string{
				attachment.KeyImageKey:   "k123",
				attachment.KeyInstanceID: "img.example.com",
			},
		},
	}
	fake := &fakeClient{}
	h := newTestHandler(fake)

	got, err := h.Delete(context.Background(), DeleteRequest{
		Policy:     lskyPolicy(),
		ConfigMap:  lskyConfigMap(),
		Attachment: att,
	})
	require.NoError(t, err)
	assert.Same(t, att, got)
	assert.Equal(t, []string{"k123"}, fake.deletedKeys)
}

func TestHandler_Delete_SkipsWithoutRemoteCall(t *testing.T) {
	tests := []struct {
		name        string
		annotations map[string]string
	}{
		{
			name:        "missing image key",
			annotations: map[string]string{attachment.KeyInstanceID: "img.example.com"},
		},
		{
			name:        "missing instance id",
			annotations: map[string]string{attachment.KeyImageKey: "k123"},
		},
		{
			name: "instance id of a different server",
			annotations: map[string]string{
				attachment.KeyImageKey:   "k123",
				attachment.KeyInstanceID: "other.example.org",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := &attachment.Attachment{
				Metadata: attachment.Metadata{Name: "att-1", Annotations: tt.annotations},
			}
			fake := &fakeClient{}
			h := newTestHandler(fake)

			got, err := h.Delete(context.Background(), DeleteRequest{
				Policy:     lskyPolicy(),
				ConfigMap:  lskyConfigMap(),
				Attachment: att,
			})
			require.NoError(t, err)
			assert.Same(t, att, got)
			assert.Zero(t, fake.deletes, "no remote call may be issued")
		})
	}
}

func TestHandler_Delete_PinnedInstanceID(t *testing.T) {
	cm := attachment.ConfigMap{Data: map[string]string{
		"default": `{"lskyUrl":"https://img.example.com","instanceId":"pinned"}`,
	}}
	att := &attachment.Attachment{
		Metadata: attachment.Metadata{
			Annotations: map[string]string{
				attachment.KeyImageKey:   "k9",
				attachment.KeyInstanceID: "pinned",
			},
		},
	}
	fake := &fakeClient{}
	h := newTestHandler(fake)

	_, err := h.Delete(context.Background(), DeleteRequest{
		Policy:     lskyPolicy(),
		ConfigMap:  cm,
		Attachment: att,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.deletes)
}

func TestHandler_Delete_RemoteFailure(t *testing.T) {
	att := &attachment.Attachment{
		Metadata: attachment.Metadata{
			Annotations: map[string]string{
				attachment.KeyImageKey:   "k123",
				attachment.KeyInstanceID: "img.example.com",
			},
		},
	}
	fake := &fakeClient{deleteErr: &lsky.APIError{StatusCode: http.StatusUnauthorized, Msg: "nope"}}
	h := newTestHandler(fake)

	_, err := h.Delete(context.Background(), DeleteRequest{
		Policy:     lskyPolicy(),
		ConfigMap:  lskyConfigMap(),
		Attachment: att,
	})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, msg.AuthFailed, inputErr.Msg)
}

func TestHandler_Permalink(t *testing.T) {
	h := New()
	policy := lskyPolicy()
	cm := lskyConfigMap()

	tests := []struct {
		name   string
		att    *attachment.Attachment
		want   string
		wantOK bool
	}{
		{
			name: "status field preferred",
			att: &attachment.Attachment{
				Metadata: attachment.Metadata{Annotations: map[string]string{
					attachment.KeyImageLink: "https://host/old.png",
				}},
				Status: &attachment.Status{Permalink: "https://host/new.png"},
			},
			want:   "https://host/new.png",
			wantOK: true,
		},
		{
			name: "annotation fallback",
			att: &attachment.Attachment{
				Metadata: attachment.Metadata{Annotations: map[string]string{
					attachment.KeyImageLink: "https://host/old.png",
				}},
				Status: &attachment.Status{Permalink: "  "},
			},
			want:   "https://host/old.png",
			wantOK: true,
		},
		{
			name:   "no link at all",
			att:    &attachment.Attachment{},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.Permalink(tt.att, policy, cm)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("foreign policy", func(t *testing.T) {
		_, ok := h.Permalink(&attachment.Attachment{}, &attachment.Policy{}, cm)
		assert.False(t, ok)
	})
}

func TestHandler_SharedURL(t *testing.T) {
	h := New()
	att := &attachment.Attachment{Status: &attachment.Status{Permalink: "https://host/a.png"}}

	got, ok := h.SharedURL(att, lskyPolicy(), lskyConfigMap(), time.Hour)
	require.True(t, ok)
	assert.Equal(t, "https://host/a.png", got)
}

func TestHandler_ThumbnailLinks(t *testing.T) {
	h := New()

	links, ok := h.ThumbnailLinks(&attachment.Attachment{}, lskyPolicy(), lskyConfigMap())
	require.True(t, ok)
	assert.Empty(t, links)

	_, ok = h.ThumbnailLinks(&attachment.Attachment{}, &attachment.Policy{}, lskyConfigMap())
	assert.False(t, ok)
}

func TestMapRemoteError_Transport(t *testing.T) {
	uErr := &url.Error{Op: "Post", URL: "https://img.example.com/api/v1/upload", Err: errors.New("connection refused")}

	err := MapRemoteError(uErr)

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Contains(t, inputErr.Msg, "failed to request Lsky Pro API")
	assert.Contains(t, inputErr.Msg, "connection refused")
}

func TestMapRemoteError_Passthrough(t *testing.T) {
	plain := errors.New("something else")
	assert.Same(t, plain, MapRemoteError(plain))
}
