// Command eligibility-check asks the policy checker whether the given
// subjects may log in and prints one JSON line per outcome.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"policycheck/internal/audit"
	"policycheck/internal/eligibility"
	"policycheck/internal/eligibility/metrics"
	"policycheck/internal/eligibility/observers"
	"policycheck/internal/platform/config"
	"policycheck/internal/platform/logger"
)

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	configPath string
	tokens     stringList
	uuids      stringList
	wait       time.Duration
}

// line is the JSON shape written for each outcome.
type line struct {
	OK     bool           `json:"ok"`
	Result map[string]any `json:"result,omitempty"`
	Error  map[string]any `json:"error,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	cfg, err := config.LoadClient(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log := logger.NewWithWriter(stderr, cfg.Log.Level, cfg.Log.Format)

	failures, err := check(ctx, cfg, opts, log, stdout)
	if err != nil {
		log.Error("eligibility check aborted", "error", err)
		return 1
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("eligibility-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file; environment variables override it")
	fs.Var(&opts.tokens, "token", "access token to check (repeatable)")
	fs.Var(&opts.uuids, "uuid", "user uuid to check (repeatable)")
	fs.DurationVar(&opts.wait, "wait", 0, "how long to wait for outcomes (default: policy checker timeout plus 5s)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(opts.tokens)+len(opts.uuids) == 0 {
		fmt.Fprintln(stderr, "at least one -token or -uuid is required")
		return nil, errors.New("no subjects")
	}
	return opts, nil
}

// check submits every subject and collects exactly one outcome per accepted
// submission. It returns the number of failed checks.
func check(ctx context.Context, cfg *config.Client, opts *options, log *slog.Logger, stdout io.Writer) (int, error) {
	serviceOpts := []eligibility.Option{
		eligibility.WithLogger(log),
		eligibility.WithMetrics(metrics.New(prometheus.NewRegistry())),
		eligibility.WithTransport(eligibility.NewHTTPTransport(cfg.PolicyChecker.Timeout)),
	}
	if cfg.Audit.Enabled() {
		publisher, err := audit.NewKafkaPublisher(cfg.Audit.Brokers, cfg.Audit.Topic, audit.WithKafkaLogger(log))
		if err != nil {
			return 0, err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := publisher.Flush(flushCtx); err != nil {
				log.Warn("audit flush incomplete", "error", err)
			}
			publisher.Close()
		}()
		serviceOpts = append(serviceOpts, eligibility.WithOutcomeHook(audit.Hook(publisher, log)))
	}

	total := len(opts.tokens) + len(opts.uuids)
	obs := observers.NewChannel(total)
	svc, err := eligibility.New(cfg.ServiceConfig(), obs, serviceOpts...)
	if err != nil {
		return 0, err
	}

	var (
		mu       sync.Mutex
		accepted int
		failures int
		enc      = json.NewEncoder(stdout)
	)
	emit := func(l line) {
		mu.Lock()
		defer mu.Unlock()
		if !l.OK {
			failures++
		}
		if err := enc.Encode(l); err != nil {
			log.Warn("write outcome", "error", err)
		}
	}

	submit := func(fn func() error) error {
		if err := fn(); err != nil {
			var e *eligibility.Error
			if errors.As(err, &e) {
				emit(line{Error: e.Map()})
				return nil
			}
			return err
		}
		mu.Lock()
		accepted++
		mu.Unlock()
		return nil
	}

	var g errgroup.Group
	for _, token := range opts.tokens {
		g.Go(func() error {
			return submit(func() error { return svc.CheckLoginWithToken(ctx, token) })
		})
	}
	for _, id := range opts.uuids {
		g.Go(func() error {
			return submit(func() error { return svc.CheckLoginWithUUID(ctx, id) })
		})
	}
	if err := g.Wait(); err != nil {
		return failures, err
	}

	wait := opts.wait
	if wait <= 0 {
		wait = cfg.PolicyChecker.Timeout + 5*time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for range accepted {
		n, err := obs.Next(waitCtx)
		if err != nil {
			return failures, fmt.Errorf("waiting for outcomes: %w", err)
		}
		if n.OK() {
			emit(line{OK: true, Result: n.Result})
		} else {
			emit(line{Error: n.Err.Map()})
		}
	}
	return failures, nil
}
