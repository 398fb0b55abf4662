package msg

// remote API failures surfaced to the user
const (
	// AuthFailed indicates rejected or missing credentials.
	AuthFailed = "Lsky Pro authentication failed, please check your API token."
	// APIDisabled indicates the server responded with HTTP 403.
	APIDisabled = "Lsky Pro API may have been disabled (HTTP 403)."
	// QuotaExceeded indicates the server responded with HTTP 429.
	QuotaExceeded = "Lsky Pro API error: usage quota exceeded (HTTP 429)."
	// APIError is the generic remote failure, formatted with status code and remote message.
	APIError = "Lsky Pro API error (HTTP %d): %s"
	// RequestFailed indicates the remote host could not be reached at all.
	RequestFailed = "failed to request Lsky Pro API: %s"
	// InvalidServerURL indicates a malformed server URL in the policy settings.
	InvalidServerURL = "invalid Lsky Pro server: %s"
)

// cmd settings
const (
	// MissingFilename asks the user to pass a file to upload.
	MissingFilename = "no filename specified"
	// MissingImageKey asks the user to pass an image key to delete.
	MissingImageKey = "no image key specified"
	// MissingServerURL indicates that no server binding is configured.
	MissingServerURL = "no Lsky Pro server configured, run 'lskyctl configure' or set LSKY_URL"
	// EmptyServerURL asks the user to type a server URL.
	EmptyServerURL = "you need to type a server URL"
	// UnknownOutputFormat indicates an unsupported --out value.
	UnknownOutputFormat = "unknown output format"
)
