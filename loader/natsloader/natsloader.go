// Package natsloader provides a batched loader that fetches entities from
// another service over NATS request/reply.
//
// The request body is {"entity_ids": [...]} and the reply is
// {"entities": [...], "error": "..."}. Entities are matched back to keys by
// their id field, so the remote side may return them in any order and may
// omit unknown ids.
package natsloader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/gqlwire/errors"
	"github.com/c360/gqlwire/loader"
)

// Requester is the subset of *nats.Conn used by the loader.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Config describes one remote entity source
type Config struct {
	Subject string             `json:"subject" yaml:"subject"`
	Timeout time.Duration      `json:"timeout" yaml:"timeout"`
	IDField string             `json:"id_field" yaml:"id_field"`
	Retry   errors.RetryConfig `json:"-" yaml:"-"`
}

// Validate checks the config and fills defaults
func (c *Config) Validate() error {
	if c.Subject == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "subject validation")
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.IDField == "" {
		c.IDField = "id"
	}
	if c.Retry.BackoffFactor == 0 {
		c.Retry = errors.DefaultRetryConfig()
	}
	return nil
}

type batchRequest struct {
	EntityIDs []string `json:"entity_ids"`
}

type batchResponse struct {
	Entities []map[string]any `json:"entities"`
	Error    string           `json:"error,omitempty"`
}

type fetcher struct {
	conn   Requester
	cfg    Config
	logger *slog.Logger
}

// New creates a keyed loader backed by conn.
func New(conn Requester, cfg Config, logger *slog.Logger, opts ...loader.Option) (*loader.Loader, error) {
	if conn == nil {
		return nil, errors.WrapFatal(errors.ErrNoConnection, "NATSLoader", "New", "connection validation")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &fetcher{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With("component", "natsloader", "subject", cfg.Subject),
	}
	return loader.NewMapped(f.fetch, opts...), nil
}

func (f *fetcher) fetch(ctx context.Context, keys []string) (map[string]any, error) {
	if len(keys) == 0 {
		return map[string]any{}, nil
	}

	reqData, err := json.Marshal(batchRequest{EntityIDs: keys})
	if err != nil {
		return nil, errors.WrapInvalid(err, "NATSLoader", "fetch", "marshal request")
	}

	msg, err := f.requestWithRetry(ctx, reqData)
	if err != nil {
		return nil, err
	}

	var response batchResponse
	if err := json.Unmarshal(msg.Data, &response); err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"NATSLoader", "fetch", "unmarshal response")
	}
	if response.Error != "" {
		return nil, errors.WrapInvalid(fmt.Errorf("%s", response.Error), "NATSLoader", "fetch", "remote service error")
	}

	found := make(map[string]any, len(response.Entities))
	for _, e := range response.Entities {
		id, ok := e[f.cfg.IDField].(string)
		if !ok {
			f.logger.Debug("Dropping entity without string id", "id_field", f.cfg.IDField)
			continue
		}
		found[id] = e
	}
	return found, nil
}

func (f *fetcher) requestWithRetry(ctx context.Context, data []byte) (*nats.Msg, error) {
	for attempt := 0; ; attempt++ {
		reqCtx, cancel := f.requestContext(ctx)
		msg, err := f.conn.RequestWithContext(reqCtx, f.cfg.Subject, data)
		cancel()
		if err == nil {
			return msg, nil
		}

		if ctx.Err() != nil || !f.cfg.Retry.ShouldRetry(err, attempt) {
			return nil, errors.WrapTransient(err, "NATSLoader", "fetch",
				fmt.Sprintf("NATS request to %s", f.cfg.Subject))
		}

		delay := f.cfg.Retry.BackoffDelay(attempt)
		f.logger.Debug("Retrying NATS request", "attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, errors.WrapTransient(ctx.Err(), "NATSLoader", "fetch", "wait for retry")
		case <-time.After(delay):
		}
	}
}

// requestContext applies the configured timeout unless ctx already carries
// a deadline.
func (f *fetcher) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.cfg.Timeout)
}
