package recon

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vulnverified/blobsweep/internal/pool"
	"golang.org/x/time/rate"
)

// Resolver implements engine.HostResolver over a chunked worker pool.
type Resolver struct {
	Lookup  Lookup
	Limiter *rate.Limiter
	Log     logrus.FieldLogger
}

// Resolve looks up every name and returns, in candidate order, those with at
// least one A record. Lookup failures of any kind mean "not found" and are
// never retried.
func (r *Resolver) Resolve(ctx context.Context, names []string, workers int, tick func()) ([]string, error) {
	if r.Lookup == nil {
		return nil, fmt.Errorf("resolver has no lookup backend")
	}
	return pool.Run(ctx, names, workers, r.resolveOne, tick), nil
}

func (r *Resolver) resolveOne(ctx context.Context, name string) []string {
	log := logger(r.Log).WithField("host", name)

	if err := waitLimiter(ctx, r.Limiter); err != nil {
		return nil
	}

	addr, err := r.Lookup.LookupA(ctx, name)
	if err != nil {
		log.WithField("class", classifyDNSError(err)).Debug("lookup failed")
		return nil
	}
	log.WithField("addr", addr).Debug("resolved")
	return []string{name}
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	discard := logrus.New()
	discard.SetLevel(logrus.PanicLevel)
	return discard
}
