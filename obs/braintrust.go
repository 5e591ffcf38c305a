package obs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	braintrust "github.com/braintrustdata/braintrust-go"
	"github.com/braintrustdata/braintrust-go/option"
	"github.com/braintrustdata/braintrust-go/packages/param"
	"github.com/braintrustdata/braintrust-go/shared"
)

const defaultBraintrustBaseURL = "https://api.braintrust.dev"

var errSinkClosed = errors.New("braintrust sink closed")

// insertFunc ships one batch of records.
type insertFunc func(ctx context.Context, batch []Completion) error

// braintrustSink batches gateway completions into a Braintrust project log,
// or into a dataset of accepted answers when a dataset name is configured.
type braintrustSink struct {
	batchSize int
	interval  time.Duration
	timeout   time.Duration
	keep      func(Completion) bool
	insert    insertFunc
	logger    *slog.Logger

	mu      sync.RWMutex
	closed  bool
	records chan Completion
	done    chan struct{}
}

func newBraintrustSink(ctx context.Context, cfg BraintrustOptions, logger *slog.Logger) (*braintrustSink, error) {
	cfg, err := normalizeBraintrust(cfg)
	if err != nil {
		return nil, err
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projects := braintrust.NewProjectService(reqOpts...)
		if projectID, err = lookupProject(ctx, &projects, cfg.Project); err != nil {
			return nil, err
		}
	}

	if cfg.Dataset != "" {
		datasets := braintrust.NewDatasetService(reqOpts...)
		ds, err := datasets.New(ctx, braintrust.DatasetNewParams{Name: cfg.Dataset, ProjectID: projectID})
		if err != nil {
			return nil, fmt.Errorf("braintrust dataset %q: %w", cfg.Dataset, err)
		}
		insert := func(ctx context.Context, batch []Completion) error {
			events := make([]shared.InsertDatasetEventParam, 0, len(batch))
			for _, c := range batch {
				events = append(events, datasetEvent(c))
			}
			_, err := datasets.Insert(ctx, ds.ID, braintrust.DatasetInsertParams{Events: events})
			return err
		}
		return startBraintrustSink(cfg, logger, accepted, insert), nil
	}

	logs := braintrust.NewProjectLogService(reqOpts...)
	insert := func(ctx context.Context, batch []Completion) error {
		events := make([]shared.InsertProjectLogsEventParam, 0, len(batch))
		for _, c := range batch {
			events = append(events, projectLogEvent(c))
		}
		_, err := logs.Insert(ctx, projectID, braintrust.ProjectLogInsertParams{Events: events})
		return err
	}
	return startBraintrustSink(cfg, logger, nil, insert), nil
}

func normalizeBraintrust(cfg BraintrustOptions) (BraintrustOptions, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Project = strings.TrimSpace(cfg.Project)
	cfg.Dataset = strings.TrimSpace(cfg.Dataset)
	if cfg.APIKey == "" {
		return cfg, errors.New("braintrust api key required")
	}
	if cfg.Project == "" && cfg.ProjectID == "" {
		return cfg, errors.New("braintrust project name or id required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBraintrustBaseURL
	}
	defaults := DefaultOptions().Braintrust
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaults.HTTPTimeout
	}
	return cfg, nil
}

func lookupProject(ctx context.Context, svc *braintrust.ProjectService, name string) (string, error) {
	resp, err := svc.List(ctx, braintrust.ProjectListParams{
		Limit:       param.NewOpt[int64](1),
		ProjectName: param.NewOpt(name),
	})
	if err != nil {
		return "", fmt.Errorf("braintrust project %q: %w", name, err)
	}
	if resp == nil || len(resp.Objects) == 0 {
		return "", fmt.Errorf("braintrust project %q not found", name)
	}
	return resp.Objects[0].ID, nil
}

// accepted reports whether c is a model answer that reached the caller.
func accepted(c Completion) bool {
	return !c.Degraded && c.Error == "" && c.Output.Text != ""
}

func startBraintrustSink(cfg BraintrustOptions, logger *slog.Logger, keep func(Completion) bool, insert insertFunc) *braintrustSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &braintrustSink{
		batchSize: cfg.BatchSize,
		interval:  cfg.FlushInterval,
		timeout:   cfg.HTTPTimeout,
		keep:      keep,
		insert:    insert,
		logger:    logger,
		records:   make(chan Completion, cfg.BatchSize*4),
		done:      make(chan struct{}),
	}
	go s.loop()
	return s
}

// LogCompletion enqueues c without blocking. A full queue drops the record.
func (s *braintrustSink) LogCompletion(_ context.Context, c Completion) error {
	if s.keep != nil && !s.keep(c) {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errSinkClosed
	}
	select {
	case s.records <- c:
		return nil
	default:
		return fmt.Errorf("braintrust queue full, dropped %s", c.RequestID)
	}
}

// Shutdown stops intake and waits for the final flush or ctx.
func (s *braintrustSink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.records)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *braintrustSink) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	batch := make([]Completion, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.insert(ctx, batch); err != nil {
			s.logger.Warn("braintrust insert failed", slog.Int("records", len(batch)), slog.Any("error", err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case c, ok := <-s.records:
			if !ok {
				flush()
				return
			}
			batch = append(batch, c)
			if len(batch) >= s.batchSize {
				flush()
			}
		}
	}
}
