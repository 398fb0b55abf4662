// Package attachment contains the host-facing records of the storage backend: policies,
// configuration maps and the attachment itself. The shapes mirror what the content-management
// host persists, so they are backend-agnostic except for the backend-owned annotations.
package attachment

// Annotation keys owned by this backend. They carry the state needed to correlate an
// attachment with the Lsky Pro server that stores it.
const (
	// KeyImageKey is the remote service's identifier of the stored file. Required for delete.
	KeyImageKey = "lsky-pro.chenhe.me/image-key"
	// KeyImageLink is the resolved public URL. Used as permalink fallback.
	KeyImageLink = "lsky-pro.chenhe.me/image-link"
	// KeyInstanceID identifies the server binding that created the file.
	KeyInstanceID = "lsky-pro.chenhe.me/instance-id"
)

// Metadata is the host's generic object metadata.
type Metadata struct {
	Name         string            `json:"name,omitempty"`
	GenerateName string            `json:"generateName,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
}

// Policy selects and parameterizes a storage backend.
type Policy struct {
	Metadata Metadata   `json:"metadata"`
	Spec     PolicySpec `json:"spec"`
}

// PolicySpec declares which backend template a policy is bound to.
type PolicySpec struct {
	DisplayName  string `json:"displayName,omitempty"`
	TemplateName string `json:"templateName"`
}

// ConfigMap is the host's persisted settings container for a policy.
type ConfigMap struct {
	Data map[string]string `json:"data"`
}

// Settings returns the raw JSON settings of the policy, or an empty object if none were
// persisted yet.
func (c ConfigMap) Settings() string {
	s, ok := c.Data["default"]
	if !ok || s == "" {
		return "{}"
	}
	return s
}

// Spec describes the stored file.
type Spec struct {
	DisplayName string `json:"displayName,omitempty"`
	MediaType   string `json:"mediaType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Status holds fields resolved after the file has been stored.
type Status struct {
	Permalink string `json:"permalink,omitempty"`
}

// Attachment is the host's generic stored-file record.
type Attachment struct {
	Metadata Metadata `json:"metadata"`
	Spec     Spec     `json:"spec"`
	Status   *Status  `json:"status,omitempty"`
}

// ImageKey returns the remote file key this backend stored on the attachment.
func (a *Attachment) ImageKey() (string, bool) {
	return a.annotation(KeyImageKey)
}

// ImageLink returns the public URL this backend stored on the attachment.
func (a *Attachment) ImageLink() (string, bool) {
	return a.annotation(KeyImageLink)
}

// InstanceID returns the server-binding identifier this backend stored on the attachment.
func (a *Attachment) InstanceID() (string, bool) {
	return a.annotation(KeyInstanceID)
}

func (a *Attachment) annotation(key string) (string, bool) {
	if a.Metadata.Annotations == nil {
		return "", false
	}
	v, ok := a.Metadata.Annotations[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ThumbnailSize enumerates the thumbnail variants a host may request.
type ThumbnailSize string

const (
	ThumbnailS  ThumbnailSize = "s"
	ThumbnailM  ThumbnailSize = "m"
	ThumbnailL  ThumbnailSize = "l"
	ThumbnailXL ThumbnailSize = "xl"
)
