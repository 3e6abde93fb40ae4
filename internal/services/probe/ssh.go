package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync/atomic"

	"github.com/fgeck/dbavailwait/internal/models"
	"golang.org/x/crypto/ssh"
)

const defaultSSHUser = "root"

// SSHTransport probes an SSH server through golang.org/x/crypto/ssh.
//
// Without a password the server counts as reachable once the key exchange
// completes, even though authentication is refused. With a password the
// login itself must succeed.
type SSHTransport struct{}

// NewSSHTransport creates the "ssh" transport.
func NewSSHTransport() *SSHTransport { return &SSHTransport{} }

// Name returns the driver name.
func (t *SSHTransport) Name() string { return "ssh" }

// Accepts reports whether endpoint is an ssh:// URL.
func (t *SSHTransport) Accepts(endpoint string) bool {
	return hasScheme(endpoint, "ssh")
}

// Ping performs the SSH handshake and closes the connection.
func (t *SSHTransport) Ping(ctx context.Context, endpoint string, creds models.Credentials) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return unsuitable(endpoint, err)
	}
	if u.Hostname() == "" {
		return unsuitable(endpoint, fmt.Errorf("missing host"))
	}
	withURLCredentials(u, creds)

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "22")
	}

	username := defaultSSHUser
	var password string
	if u.User != nil {
		if u.User.Username() != "" {
			username = u.User.Username()
		}
		password, _ = u.User.Password()
	}

	var keyExchanged atomic.Bool
	config := &ssh.ClientConfig{
		User: username,
		HostKeyCallback: func(string, net.Addr, ssh.PublicKey) error {
			keyExchanged.Store(true)
			return nil
		},
	}
	if password != "" {
		config.Auth = []ssh.AuthMethod{ssh.Password(password)}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		if password == "" && keyExchanged.Load() {
			return nil
		}
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	client := ssh.NewClient(c, chans, reqs)
	defer func() { _ = client.Close() }()

	return nil
}
