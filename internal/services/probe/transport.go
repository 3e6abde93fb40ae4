package probe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/fgeck/dbavailwait/internal/models"
)

var (
	// ErrUnknownTransport is returned when no transport is registered under a name.
	ErrUnknownTransport = errors.New("transport not available")
	// ErrNoSuitableTransport marks failures that retrying cannot fix, such as an
	// endpoint the transport cannot parse.
	ErrNoSuitableTransport = errors.New("no suitable driver found")
)

// Transport opens and releases exactly one connection to an endpoint.
type Transport interface {
	// Name is the driver name users pass on the command line.
	Name() string
	// Accepts reports whether the endpoint is in a format this transport understands.
	Accepts(endpoint string) bool
	// Ping connects, verifies the connection and closes it again.
	Ping(ctx context.Context, endpoint string, creds models.Credentials) error
}

// Registry maps driver names to transports.
type Registry struct {
	transports map[string]Transport
}

// NewRegistry creates a registry holding the given transports.
func NewRegistry(transports ...Transport) *Registry {
	r := &Registry{transports: make(map[string]Transport, len(transports))}
	for _, t := range transports {
		r.transports[t.Name()] = t
	}
	return r
}

// DefaultRegistry returns a registry with every built-in transport.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPgxTransport(),
		NewPQTransport(),
		NewMySQLTransport(),
		NewSQLiteTransport(),
		NewRedisTransport(),
		NewMongoTransport(),
		NewAMQPTransport(),
		NewSSHTransport(),
	)
}

// Lookup returns the transport registered under name.
func (r *Registry) Lookup(name string) (Transport, error) {
	t, ok := r.transports[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTransport, name, strings.Join(r.Names(), ", "))
	}
	return t, nil
}

// Names returns the registered driver names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.transports))
	for name := range r.transports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hasScheme reports whether endpoint is a URL with one of the given schemes.
func hasScheme(endpoint string, schemes ...string) bool {
	i := strings.Index(endpoint, "://")
	if i <= 0 {
		return false
	}
	scheme := strings.ToLower(endpoint[:i])
	for _, s := range schemes {
		if scheme == s {
			return true
		}
	}
	return false
}

// unsuitable wraps err so the probe classifies it as fatal.
func unsuitable(endpoint string, err error) error {
	return fmt.Errorf("%w for %s: %v", ErrNoSuitableTransport, models.RedactEndpoint(endpoint), err)
}

// withURLCredentials replaces the user info of a URL endpoint with creds.
// Empty fields keep the values already present in the URL.
func withURLCredentials(u *url.URL, creds models.Credentials) {
	if creds.IsEmpty() {
		return
	}
	username := creds.Username
	password := creds.Password
	if u.User != nil {
		if username == "" {
			username = u.User.Username()
		}
		if password == "" {
			password, _ = u.User.Password()
		}
	}
	if password == "" {
		u.User = url.User(username)
		return
	}
	u.User = url.UserPassword(username, password)
}
