package control

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 4 * time.Millisecond
	DefaultWindowSize   = 5
	DefaultInitial      = 0.5
	DefaultOpenTimeout  = 5 * time.Second
)

// SamplerConfig holds the sampler settings.
type SamplerConfig struct {
	PollInterval time.Duration
	WindowSize   int
	Initial      float64 // published before the first sample
	OpenTimeout  time.Duration
}

func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		PollInterval: DefaultPollInterval,
		WindowSize:   DefaultWindowSize,
		Initial:      DefaultInitial,
		OpenTimeout:  DefaultOpenTimeout,
	}
}

// Sampler polls the active source on its own goroutine and publishes the
// smoothed value. Latest may be called from any goroutine.
type Sampler struct {
	primary  Source
	fallback Source
	smoother Smoother
	cfg      SamplerConfig
	log      *zap.Logger
	now      func() time.Time

	// poll state, owned by whoever runs PollOnce
	mu      sync.Mutex
	active  Source
	window  *Window
	failing bool

	latest atomic.Pointer[SmoothedInput]

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stop    sync.Once
}

// NewSampler creates a sampler that prefers primary and falls back to
// fallback. Either may be nil, but not both. A nil smoother means EMA with
// the default constants.
func NewSampler(primary, fallback Source, smoother Smoother, cfg SamplerConfig, log *zap.Logger) *Sampler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if smoother == nil {
		smoother = NewEMA(DefaultEMAAlpha, DefaultEMASnap)
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Sampler{
		primary:  primary,
		fallback: fallback,
		smoother: smoother,
		cfg:      cfg,
		log:      log.Named("sampler"),
		now:      time.Now,
		window:   NewWindow(cfg.WindowSize),
	}
	s.latest.Store(&SmoothedInput{
		Value:     cfg.Initial,
		Timestamp: s.now(),
		Source:    "initial",
	})
	return s
}

// Start selects the source and launches the polling goroutine. The choice
// is made once: a primary that fails to open, or whose first poll reports
// ErrUnavailable, is replaced by the fallback for the rest of the run.
func (s *Sampler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	src, err := s.selectSource(ctx)
	if err != nil {
		s.started.Store(false)
		return err
	}

	s.mu.Lock()
	s.active = src
	s.mu.Unlock()
	s.log.Info("input source selected", zap.String("source", src.Name()))

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

func (s *Sampler) selectSource(ctx context.Context) (Source, error) {
	if s.primary == nil {
		if s.fallback == nil {
			return nil, ErrNoSource
		}
		return s.fallback, nil
	}

	err := s.openPrimary(ctx)
	if err == nil {
		if _, err = s.primary.Poll(); err != nil && !errors.Is(err, ErrUnavailable) {
			// A transient failure on the first read is not a missing device.
			err = nil
		}
	}
	if err == nil {
		return s.primary, nil
	}

	if s.fallback == nil {
		return nil, err
	}
	s.log.Warn("hardware unavailable, using fallback input",
		zap.String("source", s.primary.Name()),
		zap.String("fallback", s.fallback.Name()),
		zap.Error(err))
	if c, ok := s.primary.(io.Closer); ok {
		_ = c.Close()
	}
	return s.fallback, nil
}

func (s *Sampler) openPrimary(ctx context.Context) error {
	o, ok := s.primary.(Opener)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpenTimeout)
	defer cancel()
	return o.Open(ctx)
}

func (s *Sampler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.PollOnce()
		}
	}
}

// PollOnce reads one sample from the active source and publishes the
// smoothed value. On failure it returns a *PollError and keeps the previous
// value. Before Start it polls the fallback (or the primary when there is no
// fallback).
func (s *Sampler) PollOnce() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.active
	if src == nil {
		src = s.fallback
		if src == nil {
			src = s.primary
		}
		if src == nil {
			return ErrNoSource
		}
	}

	v, err := src.Poll()
	if err != nil {
		perr := &PollError{Source: src.Name(), Err: err}
		if !s.failing {
			s.log.Warn("poll failed, keeping last value", zap.String("source", src.Name()), zap.Error(err))
		} else {
			s.log.Debug("poll failed", zap.String("source", src.Name()), zap.Error(err))
		}
		s.failing = true
		return perr
	}
	if s.failing {
		s.log.Info("input recovered", zap.String("source", src.Name()))
		s.failing = false
	}

	s.window.Push(v)
	s.publish(s.smoother.Smooth(s.window), src.Name())
	return nil
}

func (s *Sampler) publish(v float64, source string) {
	prev := s.latest.Load()
	ts := s.now()
	if ts.Before(prev.Timestamp) {
		ts = prev.Timestamp
	}
	s.latest.Store(&SmoothedInput{
		Value:     v,
		Timestamp: ts,
		Seq:       prev.Seq + 1,
		Source:    source,
	})
}

// Latest returns the most recently published value without blocking.
func (s *Sampler) Latest() SmoothedInput {
	return *s.latest.Load()
}

// Source returns the name of the active source, or "" before Start.
func (s *Sampler) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.Name()
}

// Stop halts polling, waits for the goroutine and closes the active source.
// It is safe to call more than once.
func (s *Sampler) Stop() {
	s.stop.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()

		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.active.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.log.Debug("closing source", zap.Error(err))
			}
		}
	})
}
