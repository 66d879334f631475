package exchange

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"crypto-mcp/internal/config"
	"crypto-mcp/internal/domain"
)

// Registry resolves exchange ids to connected clients. Every supported
// exchange gets a client so public market data works without keys.
type Registry struct {
	defaultID string
	clients   map[string]Exchange
	logger    *slog.Logger
}

func NewRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	clients := make([]Exchange, 0, len(domain.SupportedExchanges))
	for _, id := range domain.SupportedExchanges {
		creds := cfg.Exchanges[id]
		clients = append(clients, NewBinance(BinanceOptions{
			ID:     id,
			APIKey: creds.APIKey,
			Secret: creds.Secret,
			Logger: logger,
		}))
	}
	return NewRegistryWith(cfg.DefaultExchange, logger, clients...)
}

// NewRegistryWith builds a registry over pre-built clients.
func NewRegistryWith(defaultID string, logger *slog.Logger, clients ...Exchange) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		defaultID: strings.ToLower(strings.TrimSpace(defaultID)),
		clients:   make(map[string]Exchange, len(clients)),
		logger:    logger,
	}
	for _, c := range clients {
		r.clients[c.ID()] = c
	}
	return r
}

func (r *Registry) DefaultID() string { return r.defaultID }

// Get returns the client for id. A blank id selects the default exchange.
func (r *Registry) Get(id string) (Exchange, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		r.logger.Warn(fmt.Sprintf("No exchange specified, defaulting to %s", r.defaultID))
		id = r.defaultID
	}
	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExchange, id)
	}
	return c, nil
}

// Available lists exchanges with credentials configured.
func (r *Registry) Available() []string {
	var out []string
	for id, c := range r.clients {
		if c.HasCredentials() {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Supported lists every exchange the registry can route to.
func (r *Registry) Supported() []string {
	out := make([]string, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Statuses() []domain.ExchangeStatus {
	ids := r.Supported()
	out := make([]domain.ExchangeStatus, 0, len(ids))
	for _, id := range ids {
		c := r.clients[id]
		st := domain.ExchangeStatus{ID: id, Name: c.Name(), Ready: c.HasCredentials()}
		if !st.Ready {
			st.Error = "Missing API key/secret"
		}
		out = append(out, st)
	}
	return out
}
