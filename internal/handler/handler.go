// Package handler adapts the host's generic storage requests onto the Lsky Pro API.
package handler

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chenhe/lskyctl/internal/attachment"
	"github.com/chenhe/lskyctl/internal/lsky"
	"github.com/chenhe/lskyctl/internal/mediatype"
)

// TemplateName is the policy template this backend serves.
const TemplateName = "chenhe-lsky-pro"

// DefaultTimeout bounds a single remote call.
const DefaultTimeout = 15 * time.Minute

// Client is the remote API surface the handler depends on.
type Client interface {
	Upload(ctx context.Context, body io.Reader, filename string, opts lsky.UploadOptions) (lsky.UploadResponse, error)
	Delete(ctx context.Context, key string) error
}

// Handler is the storage backend for policies bound to the Lsky Pro template. Every operation
// is stateless: the policy settings are decoded fresh per request and a dedicated client is
// built per call.
type Handler struct {
	// Timeout bounds a single remote call. Zero means DefaultTimeout.
	Timeout time.Duration

	// NewClient overrides the remote client constructor. Used by tests.
	NewClient func(serverURL, token string) Client
}

// UploadRequest carries one host upload request.
type UploadRequest struct {
	Policy    *attachment.Policy
	ConfigMap attachment.ConfigMap
	File      io.Reader
	Filename  string
}

// DeleteRequest carries one host delete request.
type DeleteRequest struct {
	Policy     *attachment.Policy
	ConfigMap  attachment.ConfigMap
	Attachment *attachment.Attachment
}

// New returns a Handler with production defaults.
func New() *Handler {
	return &Handler{}
}

// Handles reports whether a request for the given policy belongs to this backend. For upload
// requests, filename is the candidate file's name and the inferred media type must be an
// image; pass an empty filename for all other request kinds.
func (h *Handler) Handles(policy *attachment.Policy, filename string) bool {
	if policy == nil || policy.Spec.TemplateName != TemplateName {
		return false
	}
	if filename != "" && !mediatype.IsImage(mediatype.ByName(filename)) {
		return false
	}
	return true
}

// Upload stores the file on the remote server and returns the resulting attachment record.
// Returns ErrNotHandled when the request does not belong to this backend.
func (h *Handler) Upload(ctx context.Context, req UploadRequest) (*attachment.Attachment, error) {
	if !h.Handles(req.Policy, req.Filename) {
		return nil, ErrNotHandled
	}

	props, err := lsky.ParseProperties(req.ConfigMap.Settings())
	if err != nil {
		return nil, err
	}
	instanceID, err := props.EffectiveInstanceID()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("instanceId", instanceID).Msg("Starting upload")

	resp, err := h.client(props).Upload(ctx, req.File, req.Filename, lsky.UploadOptions{
		StrategyID: props.StrategyID,
		AlbumID:    props.AlbumID,
	})
	if err != nil {
		return nil, MapRemoteError(err)
	}
	log.Debug().Str("key", resp.Key).Str("url", resp.Links.URL).Msg("Upload succeeded")

	return buildAttachment(resp, instanceID), nil
}

// Delete removes the stored image backing the attachment from the remote server.
//
// The call is skipped, and the unmodified attachment returned as success, when the record
// carries no image key or when its instance ID does not match the policy's: a policy must
// never delete a file that a different server binding created, even if the key happens to be
// valid on the current server.
func (h *Handler) Delete(ctx context.Context, req DeleteRequest) (*attachment.Attachment, error) {
	if !h.Handles(req.Policy, "") {
		return nil, ErrNotHandled
	}
	att := req.Attachment

	key, ok := att.ImageKey()
	if !ok {
		log.Warn().Msgf("Cannot obtain image key from attachment %s, skip deleting from Lsky Pro.",
			att.Metadata.Name)
		return att, nil
	}

	props, err := lsky.ParseProperties(req.ConfigMap.Settings())
	if err != nil {
		return nil, err
	}
	instanceID, err := props.EffectiveInstanceID()
	if err != nil {
		return nil, err
	}

	stored, ok := att.InstanceID()
	if !ok || stored != instanceID {
		log.Warn().Msgf("Attachment %s instance ID does not match (policy: %s, image: %s), skip deleting from Lsky Pro.",
			att.Metadata.Name, instanceID, stored)
		return att, nil
	}

	if err := h.client(props).Delete(ctx, key); err != nil {
		return nil, MapRemoteError(err)
	}
	log.Info().Msgf("Delete image %s from Lsky Pro successfully", key)

	return att, nil
}

// Permalink resolves the public URL of the attachment. Returns false when the policy does not
// belong to this backend or no link is known.
func (h *Handler) Permalink(att *attachment.Attachment, policy *attachment.Policy, _ attachment.ConfigMap) (string, bool) {
	if !h.Handles(policy, "") {
		return "", false
	}
	if att.Status != nil && strings.TrimSpace(att.Status.Permalink) != "" {
		return att.Status.Permalink, true
	}
	// Records created before the permalink status field existed carry the link as annotation.
	return att.ImageLink()
}

// SharedURL resolves a shareable URL. Links are permanently public on Lsky Pro, so the ttl is
// ignored and the permalink returned.
func (h *Handler) SharedURL(att *attachment.Attachment, policy *attachment.Policy, cm attachment.ConfigMap, _ time.Duration) (string, bool) {
	return h.Permalink(att, policy, cm)
}

// ThumbnailLinks always resolves to an empty mapping: the server exposes no thumbnail
// parameters addressable by size.
func (h *Handler) ThumbnailLinks(_ *attachment.Attachment, policy *attachment.Policy, _ attachment.ConfigMap) (map[attachment.ThumbnailSize]string, bool) {
	if !h.Handles(policy, "") {
		return nil, false
	}
	return map[attachment.ThumbnailSize]string{}, true
}

func (h *Handler) client(p lsky.Properties) Client {
	if h.NewClient != nil {
		return h.NewClient(p.URL, p.Token)
	}
	timeout := h.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return lsky.NewClient(p.URL, p.Token, timeout)
}

// buildAttachment maps a successful upload response into the host's attachment record.
func buildAttachment(resp lsky.UploadResponse, instanceID string) *attachment.Attachment {
	link := resp.Links.URL

	// The server reports the media type of the file as uploaded. With server-side image
	// conversion enabled that type is stale, so a type inferred from the URL's filename
	// extension wins. e.g. https://example.com/a.png -> image/png
	mediaType := mediatype.Normalize(resp.Mimetype)
	var filename string
	if i := strings.LastIndex(link, "/"); i != -1 {
		filename = link[i+1:]
	}
	if inferred := mediatype.ByName(filename); inferred != "" && inferred != mediaType {
		log.Debug().Msgf("Use inferred media type '%s', rather than '%s'", inferred, mediaType)
		mediaType = inferred
	}
	if mediaType == "" {
		log.Warn().Msgf("No media type in API response nor can it be inferred from the url %s", link)
	}

	return &attachment.Attachment{
		Metadata: attachment.Metadata{
			GenerateName: uuid.NewString(),
			Annotations: map[string]string{
				attachment.KeyImageKey:   resp.Key,
				attachment.KeyImageLink:  link,
				attachment.KeyInstanceID: instanceID,
			},
		},
		Spec: attachment.Spec{
			DisplayName: resp.Name,
			MediaType:   mediaType,
			// The server reports kilobytes. With image conversion enabled the value may be off.
			Size: int64(resp.Size * 1024),
		},
		Status: &attachment.Status{Permalink: link},
	}
}
