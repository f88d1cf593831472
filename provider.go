package sqlmig

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Provider hands out a single shared connection handle. The handle is opened
// on the first call to Conn and reused until Close.
type Provider struct {
	mu     sync.Mutex
	creds  *Credentials
	db     DB
	logger *zap.Logger
}

type ProviderOption func(*Provider)

func WithProviderLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

func NewProvider(creds *Credentials, opts ...ProviderOption) *Provider {
	p := &Provider{creds: creds, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetCredentials replaces the credentials used for the next connection. An
// already open handle is not affected.
func (p *Provider) SetCredentials(creds *Credentials) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creds = creds
}

// Connected reports whether a handle has been opened.
func (p *Provider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db != nil
}

// Conn returns the shared handle, opening and pinging it on first use.
func (p *Provider) Conn(ctx context.Context) (DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.db, nil
	}
	if p.creds.Empty() {
		return nil, ErrMissingCredentials
	}
	driver := p.creds.DriverName()
	p.logger.Info("creating new database connection",
		zap.String("driver", driver),
		zap.String("database", p.creds.Database))
	db, err := Open(driver, p.creds.DSN())
	if err != nil {
		return nil, fmt.Errorf("problem opening database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach database: %w", err)
	}
	if db.Database() == "" && p.creds.Database != "" {
		db = Wrap(db.SQLX(), p.creds.Database)
	}
	p.db = db
	return db, nil
}

// Close closes the shared handle. A later Conn opens a new one.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
