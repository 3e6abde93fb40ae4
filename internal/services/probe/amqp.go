package probe

import (
	"context"
	"net"

	"github.com/fgeck/dbavailwait/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPTransport probes an AMQP 0-9-1 broker such as RabbitMQ.
type AMQPTransport struct{}

// NewAMQPTransport creates the "amqp" transport.
func NewAMQPTransport() *AMQPTransport { return &AMQPTransport{} }

// Name returns the driver name.
func (t *AMQPTransport) Name() string { return "amqp" }

// Accepts reports whether endpoint is an amqp:// or amqps:// URI.
func (t *AMQPTransport) Accepts(endpoint string) bool {
	return hasScheme(endpoint, "amqp", "amqps")
}

// Ping completes the AMQP handshake and closes the connection.
func (t *AMQPTransport) Ping(ctx context.Context, endpoint string, creds models.Credentials) error {
	uri, err := amqp.ParseURI(endpoint)
	if err != nil {
		return unsuitable(endpoint, err)
	}
	if creds.Username != "" {
		uri.Username = creds.Username
	}
	if creds.Password != "" {
		uri.Password = creds.Password
	}

	conn, err := amqp.DialConfig(uri.String(), amqp.Config{
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if deadline, ok := ctx.Deadline(); ok {
				_ = c.SetDeadline(deadline)
			}
			return c, nil
		},
	})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return nil
}
