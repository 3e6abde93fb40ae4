package probe

import (
	"context"
	"strings"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoDisconnectTimeout = 5 * time.Second

// MongoTransport probes MongoDB through the official driver.
type MongoTransport struct{}

// NewMongoTransport creates the "mongodb" transport.
func NewMongoTransport() *MongoTransport { return &MongoTransport{} }

// Name returns the driver name.
func (t *MongoTransport) Name() string { return "mongodb" }

// Accepts reports whether endpoint is a mongodb:// or mongodb+srv:// URI.
func (t *MongoTransport) Accepts(endpoint string) bool {
	return hasScheme(endpoint, "mongodb", "mongodb+srv")
}

// Ping pings the primary and disconnects.
func (t *MongoTransport) Ping(ctx context.Context, endpoint string, creds models.Credentials) error {
	opts := options.Client().ApplyURI(endpoint)
	if !creds.IsEmpty() {
		cred := options.Credential{}
		if opts.Auth != nil {
			cred = *opts.Auth
		}
		if creds.Username != "" {
			cred.Username = creds.Username
		}
		if creds.Password != "" {
			cred.Password = creds.Password
			cred.PasswordSet = true
		}
		opts.SetAuth(cred)
	}
	// mongodb+srv URIs resolve SRV and TXT records while parsing. A name that
	// does not resolve yet is retried like any other network failure.
	if err := opts.Validate(); err != nil {
		return mongoSetupError(endpoint, err)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return mongoSetupError(endpoint, err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()

	return client.Ping(ctx, readpref.Primary())
}

func mongoSetupError(endpoint string, err error) error {
	if isNetworkError(err) {
		return err
	}
	if hasScheme(endpoint, "mongodb+srv") && strings.Contains(err.Error(), "lookup ") {
		return err
	}
	return unsuitable(endpoint, err)
}
