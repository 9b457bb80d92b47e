package recon

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options configures the network stages built by NewStages.
type Options struct {
	// Resolvers are DNS servers as host or host:port. When empty the
	// servers from /etc/resolv.conf are used, falling back to the system
	// resolver if that file cannot be read.
	Resolvers []string
	Timeout   time.Duration
	Workers   int
	// Rate caps DNS queries and HTTP requests per second. Zero disables it.
	Rate      float64
	UserAgent string
	BingKey   string
	Log       logrus.FieldLogger
}

// Stages holds the concrete network stages. Search is nil without a Bing key.
type Stages struct {
	Resolver *Resolver
	Prober   *Prober
	Search   *Bing
}

// NewStages builds resolver, prober and search stages that share one rate
// limiter. Search gets its own HTTP client bounded by bingTimeout rather
// than Options.Timeout.
func NewStages(opts Options) (*Stages, error) {
	log := logger(opts.Log)

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := int(opts.Rate)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}

	lookup, err := newLookup(opts, log)
	if err != nil {
		return nil, err
	}

	client := NewHTTPClient(opts.Timeout, opts.Workers)
	s := &Stages{
		Resolver: &Resolver{Lookup: lookup, Limiter: limiter, Log: log},
		Prober: &Prober{
			Client:    client,
			UserAgent: opts.UserAgent,
			Limiter:   limiter,
			Log:       log,
		},
	}
	if opts.BingKey != "" {
		s.Search = &Bing{
			APIKey:    opts.BingKey,
			UserAgent: opts.UserAgent,
			Client:    NewHTTPClient(bingTimeout, 1),
		}
	}
	return s, nil
}

func newLookup(opts Options, log logrus.FieldLogger) (Lookup, error) {
	servers := opts.Resolvers
	if len(servers) == 0 {
		sys, err := SystemServers()
		if err != nil || len(sys) == 0 {
			log.WithError(err).Debug("falling back to system resolver")
			return &SystemLookup{Timeout: opts.Timeout}, nil
		}
		servers = sys
	}

	lookup, err := NewDNSLookup(servers, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("configuring resolvers: %w", err)
	}
	log.WithField("servers", servers).Debug("using DNS servers")
	return lookup, nil
}
