package lsky

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/chenhe/lskyctl/internal/msg"
)

const apiSuffix = "/api/v1"

// Properties is one Lsky Pro server binding, as persisted in the storage policy settings.
type Properties struct {
	// URL includes the protocol, without trailing slash or api path.
	URL string `mapstructure:"lskyUrl"`

	// Token is the API token, without the leading "Bearer". Empty means anonymous access.
	Token string `mapstructure:"lskyToken"`

	// StrategyID selects a server-side storage strategy.
	StrategyID *int `mapstructure:"lskyStrategy"`

	// AlbumID places uploads into a server-side album.
	AlbumID *int `mapstructure:"lskyAlbumId"`

	// InstanceID is the user-pinned instance identifier. When empty, an identifier is derived
	// from the server address, see EffectiveInstanceID.
	InstanceID string `mapstructure:"instanceId"`
}

// ParseProperties decodes the policy settings JSON into normalized Properties.
func ParseProperties(settings string) (Properties, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(settings), &raw); err != nil {
		return Properties{}, fmt.Errorf("malformed policy settings: %w", err)
	}

	var p Properties
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Properties{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Properties{}, fmt.Errorf("malformed policy settings: %w", err)
	}

	p.URL = NormalizeURL(p.URL)
	p.Token = NormalizeToken(p.Token)
	p.InstanceID = strings.TrimSpace(p.InstanceID)

	return p, nil
}

// NormalizeURL strips the trailing slash and the api path suffix from a server URL, so that
// user input like "https://img.example.com/api/v1/" reduces to "https://img.example.com".
func NormalizeURL(serverURL string) string {
	serverURL = strings.TrimSpace(serverURL)
	serverURL = strings.TrimSuffix(serverURL, "/")
	serverURL = strings.TrimSuffix(serverURL, apiSuffix)
	return serverURL
}

// NormalizeToken strips a leading "Bearer" (any casing) and surrounding whitespace from token.
// A blank token normalizes to the empty string, meaning no token is configured.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= 6 && strings.EqualFold(token[:6], "bearer") {
		token = token[6:]
	}
	return strings.TrimSpace(token)
}

// EffectiveInstanceID returns the instance identifier of this server binding.
//
// Every stored image is associated with an instance ID. If the user does not pin one, an ID is
// derived from the server's host, path and port. Images carrying the same instance ID are
// considered managed by this binding, which keeps the relationship between attachments and the
// Lsky Pro server intact across reinstalls, as long as the server address stays the same.
func (p Properties) EffectiveInstanceID() (string, error) {
	if p.InstanceID != "" {
		return p.InstanceID, nil
	}

	u, err := url.Parse(p.URL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf(msg.InvalidServerURL, p.URL)
	}

	id := u.Hostname() + u.Path
	if port := u.Port(); port != "" {
		id += ":" + port
	}
	return id, nil
}
