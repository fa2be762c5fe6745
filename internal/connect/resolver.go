// Package connect resolves provider descriptors into dispatchable
// endpoints: a fully-qualified base URL plus the resolved header set.
// It performs no I/O; secret lookup and the network call are the
// caller's collaborators.
package connect

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Scheme is the transport scheme of a provider endpoint.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// DefaultPort returns the scheme's default port.
func (s Scheme) DefaultPort() int {
	if s == SchemeHTTP {
		return 80
	}

	return 443
}

// AuthKind selects how the API key is attached to requests.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthAPIKey AuthKind = "api_key"
)

// ProviderKind selects the wire protocol and auth header convention of
// a provider.
type ProviderKind string

const (
	KindOpenAI    ProviderKind = "openai"
	KindGoogle    ProviderKind = "google"
	KindAnthropic ProviderKind = "anthropic"
	KindResponses ProviderKind = "responses"
)

const defaultAnthropicVersion = "2023-06-01"

// Descriptor describes one configured provider endpoint. Host may embed
// a port and a sub-path ("localhost:8080/api"); BasePath is appended
// after the embedded sub-path.
type Descriptor struct {
	ID       string
	Kind     ProviderKind
	Scheme   Scheme
	Host     string
	Port     int // 0 means use the embedded or default port
	BasePath string

	// Headers are sent verbatim. SecretHeaders name headers whose
	// values come from the secret source, keyed by secret name.
	Headers       map[string]string
	SecretHeaders map[string]string

	Auth      AuthKind
	APIKeyRef string
}

// SecretSource resolves secret values by provider id and key name. A
// missing secret returns ok=false, never an error string in the value.
type SecretSource interface {
	Secret(providerID, name string) (string, bool)
}

// EnvSecretSource resolves secrets from the process environment, keyed
// as PROVIDERID_NAME uppercased with dashes mapped to underscores.
type EnvSecretSource struct{}

func (EnvSecretSource) Secret(providerID, name string) (string, bool) {
	key := strings.ToUpper(providerID + "_" + name)
	key = strings.NewReplacer("-", "_", ".", "_").Replace(key)

	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// ResolutionError reports a descriptor that cannot be turned into an
// endpoint. It is surfaced before any network attempt.
type ResolutionError struct {
	ProviderID string
	Msg        string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve provider %s: %s", e.ProviderID, e.Msg)
}

// Endpoint is a resolved provider endpoint. Path suffixes appended to
// BaseURL must carry their own leading slash; no re-normalization
// happens after resolution.
type Endpoint struct {
	BaseURL string
	Headers map[string]string
}

// URL joins a per-endpoint suffix onto the base URL.
func (e *Endpoint) URL(suffix string) string {
	return e.BaseURL + suffix
}

// Resolve builds the endpoint for a descriptor.
//
// The host is split into actual host and embedded sub-path. A trailing
// :port on the host is used unless an explicit port override is set;
// the override wins when it differs from the scheme default. The
// embedded sub-path and BasePath are concatenated with slashes
// normalized and a single trailing slash stripped.
func Resolve(d *Descriptor, secrets SecretSource) (*Endpoint, error) {
	if d.Host == "" {
		return nil, &ResolutionError{ProviderID: d.ID, Msg: "empty host"}
	}

	scheme := d.Scheme
	if scheme == "" {
		scheme = SchemeHTTPS
	}

	host := d.Host
	subPath := ""

	if idx := strings.Index(host, "/"); idx >= 0 {
		subPath = host[idx:]
		host = host[:idx]
	}

	port := 0

	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		p, err := strconv.Atoi(host[idx+1:])
		if err != nil || p <= 0 || p > 65535 {
			return nil, &ResolutionError{ProviderID: d.ID, Msg: fmt.Sprintf("invalid port in host %q", d.Host)}
		}

		port = p
		host = host[:idx]
	}

	if host == "" {
		return nil, &ResolutionError{ProviderID: d.ID, Msg: fmt.Sprintf("unparsable host %q", d.Host)}
	}

	if d.Port != 0 && d.Port != scheme.DefaultPort() {
		port = d.Port
	}

	authority := host
	if port != 0 && port != scheme.DefaultPort() {
		authority = fmt.Sprintf("%s:%d", host, port)
	}

	path := joinPath(subPath, d.BasePath)

	headers, err := resolveHeaders(d, secrets)
	if err != nil {
		return nil, err
	}

	return &Endpoint{
		BaseURL: fmt.Sprintf("%s://%s%s", scheme, authority, path),
		Headers: headers,
	}, nil
}

// joinPath concatenates path segments, normalizes the leading slash,
// collapses repeated slashes and strips one trailing slash.
func joinPath(segments ...string) string {
	joined := strings.Join(segments, "/")
	if joined == "" {
		return ""
	}

	parts := make([]string, 0, 4)

	for _, p := range strings.Split(joined, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return "/" + strings.Join(parts, "/")
}

func resolveHeaders(d *Descriptor, secrets SecretSource) (map[string]string, error) {
	headers := make(map[string]string, len(d.Headers)+len(d.SecretHeaders)+2)

	for k, v := range d.Headers {
		headers[k] = v
	}

	for header, secretName := range d.SecretHeaders {
		v, ok := secrets.Secret(d.ID, secretName)
		if !ok {
			return nil, &ResolutionError{
				ProviderID: d.ID,
				Msg:        fmt.Sprintf("secret %q for header %s not found", secretName, header),
			}
		}

		headers[header] = v
	}

	if d.Auth == AuthNone {
		return headers, nil
	}

	keyRef := d.APIKeyRef
	if keyRef == "" {
		keyRef = "api_key"
	}

	key, ok := secrets.Secret(d.ID, keyRef)
	if !ok {
		// No key configured means no auth header, not a failure.
		return headers, nil
	}

	switch d.Kind {
	case KindGoogle:
		headers["x-goog-api-key"] = key
	case KindAnthropic:
		headers["x-api-key"] = key
		if _, set := headers["anthropic-version"]; !set {
			headers["anthropic-version"] = defaultAnthropicVersion
		}
	default:
		headers["Authorization"] = "Bearer " + key
	}

	return headers, nil
}
