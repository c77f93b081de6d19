package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeSource replays scripted results and then repeats the last value.
type fakeSource struct {
	name    string
	openErr error

	mu     sync.Mutex
	value  float64
	errs   []error
	polls  int
	closed atomic.Bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Open(ctx context.Context) error { return f.openErr }

func (f *fakeSource) Poll() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.value, nil
}

func (f *fakeSource) set(v float64) {
	f.mu.Lock()
	f.value = v
	f.mu.Unlock()
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

// streamDevice hides LineDevice.Open so a test can attach a pipe instead
// of a device path.
type streamDevice struct {
	d *LineDevice
}

func (s streamDevice) Position() (int64, error) { return s.d.Position() }

func (s streamDevice) Close() error { return s.d.Close() }

func newObserved() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func passthroughConfig() SamplerConfig {
	cfg := DefaultSamplerConfig()
	cfg.WindowSize = 1
	cfg.PollInterval = time.Millisecond
	return cfg
}

var _ = Describe("Sampler", func() {
	var (
		log  *zap.Logger
		logs *observer.ObservedLogs
	)

	BeforeEach(func() {
		log, logs = newObserved()
	})

	Describe("source selection", func() {
		It("falls back when the device cannot be opened", func() {
			enc := &fakeSource{name: "encoder", openErr: ErrUnavailable}
			manual := NewManual(0.2)
			s := NewSampler(enc, manual, Mean{}, passthroughConfig(), log)

			Expect(s.Start(context.Background())).To(Succeed())
			defer s.Stop()

			Expect(s.Source()).To(Equal("manual"))
			Expect(enc.closed.Load()).To(BeTrue())

			manual.Set(0.9)
			Eventually(func() float64 { return s.Latest().Value }).Should(BeNumerically("~", 0.9, 1e-12))
			Expect(s.Latest().Source).To(Equal("manual"))

			Expect(logs.FilterMessage("hardware unavailable, using fallback input").Len()).To(Equal(1))
		})

		It("falls back when the first poll reports the device missing", func() {
			enc := &fakeSource{name: "encoder", errs: []error{ErrUnavailable}}
			s := NewSampler(enc, NewManual(0.5), Mean{}, passthroughConfig(), log)

			Expect(s.Start(context.Background())).To(Succeed())
			defer s.Stop()

			Expect(s.Source()).To(Equal("manual"))
			Consistently(func() int {
				enc.mu.Lock()
				defer enc.mu.Unlock()
				return enc.polls
			}, 30*time.Millisecond).Should(Equal(1))
			Expect(logs.FilterLevelExact(zapcore.WarnLevel).Len()).To(Equal(1))
		})

		It("keeps the encoder when it answers", func() {
			enc := &fakeSource{name: "encoder", value: 0.7}
			s := NewSampler(enc, NewManual(0.5), Mean{}, passthroughConfig(), log)

			Expect(s.Start(context.Background())).To(Succeed())
			defer s.Stop()

			Expect(s.Source()).To(Equal("encoder"))
			Eventually(func() string { return s.Latest().Source }).Should(Equal("encoder"))
			Expect(s.Latest().Value).To(BeNumerically("~", 0.7, 1e-12))
			Expect(logs.FilterLevelExact(zapcore.WarnLevel).Len()).To(BeZero())
		})

		It("reports the open failure again on retry", func() {
			enc := &fakeSource{name: "encoder", openErr: ErrUnavailable}
			s := NewSampler(enc, nil, nil, passthroughConfig(), log)

			Expect(s.Start(context.Background())).To(MatchError(ErrUnavailable))
			Expect(s.Start(context.Background())).To(MatchError(ErrUnavailable))
		})

		It("fails without any source", func() {
			s := NewSampler(nil, nil, nil, DefaultSamplerConfig(), nil)
			Expect(s.Start(context.Background())).To(MatchError(ErrNoSource))
		})

		It("refuses to start twice", func() {
			s := NewSampler(nil, NewManual(0.5), nil, passthroughConfig(), log)
			Expect(s.Start(context.Background())).To(Succeed())
			defer s.Stop()
			Expect(s.Start(context.Background())).To(MatchError(ErrAlreadyStarted))
		})
	})

	Describe("polling", func() {
		It("publishes the initial value before the first sample", func() {
			cfg := DefaultSamplerConfig()
			cfg.Initial = 0.25
			s := NewSampler(nil, NewManual(0.8), nil, cfg, log)

			in := s.Latest()
			Expect(in.Value).To(Equal(0.25))
			Expect(in.Seq).To(BeZero())
		})

		It("keeps the last value through poll failures", func() {
			boom := errors.New("crc mismatch")
			src := &fakeSource{name: "encoder", value: 0.4, errs: []error{nil, boom, boom, boom, nil}}
			s := NewSampler(src, nil, Mean{}, passthroughConfig(), log)

			Expect(s.PollOnce()).To(Succeed())
			before := s.Latest()
			Expect(before.Value).To(Equal(0.4))

			src.set(0.6)
			for i := 0; i < 3; i++ {
				err := s.PollOnce()
				var perr *PollError
				Expect(errors.As(err, &perr)).To(BeTrue())
				Expect(perr.Source).To(Equal("encoder"))
				Expect(errors.Is(err, boom)).To(BeTrue())
				Expect(s.Latest()).To(Equal(before))
			}

			Expect(s.PollOnce()).To(Succeed())
			Expect(s.Latest().Value).To(Equal(0.6))
			Expect(s.Latest().Seq).To(Equal(before.Seq + 1))

			Expect(logs.FilterLevelExact(zapcore.WarnLevel).Len()).To(Equal(1))
			Expect(logs.FilterLevelExact(zapcore.DebugLevel).Len()).To(Equal(2))
			Expect(logs.FilterMessage("input recovered").Len()).To(Equal(1))
		})

		It("never lets the timestamp go backwards", func() {
			s := NewSampler(nil, NewManual(0.5), Mean{}, passthroughConfig(), log)
			base := s.Latest().Timestamp
			ticks := []time.Time{base.Add(time.Second), base.Add(-time.Hour), base.Add(2 * time.Second)}
			s.now = func() time.Time {
				t := ticks[0]
				ticks = ticks[1:]
				return t
			}

			var stamps []time.Time
			for i := 0; i < 3; i++ {
				Expect(s.PollOnce()).To(Succeed())
				stamps = append(stamps, s.Latest().Timestamp)
			}
			Expect(stamps[1]).To(Equal(stamps[0]))
			Expect(stamps[2].After(stamps[1])).To(BeTrue())
		})

		It("publishes monotonic values to concurrent readers", func() {
			manual := NewManual(0)
			s := NewSampler(nil, manual, nil, passthroughConfig(), log)
			Expect(s.Start(context.Background())).To(Succeed())

			stop := make(chan struct{})
			var wg sync.WaitGroup
			var violations atomic.Int64
			for r := 0; r < 4; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					prev := s.Latest()
					for {
						select {
						case <-stop:
							return
						default:
						}
						cur := s.Latest()
						if cur.Seq < prev.Seq || cur.Timestamp.Before(prev.Timestamp) {
							violations.Add(1)
						}
						prev = cur
						manual.Nudge(0.001)
					}
				}()
			}

			Eventually(func() uint64 { return s.Latest().Seq }).Should(BeNumerically(">", 20))
			close(stop)
			wg.Wait()
			s.Stop()

			Expect(violations.Load()).To(BeZero())
		})
	})

	Describe("line encoder", func() {
		It("does not move on a resting count", func() {
			pr, pw := io.Pipe()
			dev := NewLineDevice("pipe")
			dev.attach(pr)
			defer pw.Close()

			enc := NewEncoder(streamDevice{dev}, 0.0001, 0.5)
			s := NewSampler(enc, NewManual(0.2), Mean{}, passthroughConfig(), log)
			Expect(s.Start(context.Background())).To(Succeed())
			defer s.Stop()
			Expect(s.Source()).To(Equal("encoder"))

			written := make(chan struct{})
			go func() {
				defer close(written)
				for i := 0; i < 20; i++ {
					fmt.Fprintln(pw, "37215")
				}
			}()
			Eventually(written).Should(BeClosed())
			Eventually(func() uint64 { return s.Latest().Seq }).Should(BeNumerically(">", 25))
			Consistently(func() float64 { return s.Latest().Value }, 30*time.Millisecond).Should(BeNumerically("~", 0.5, 1e-12))

			go fmt.Fprintln(pw, "37315")
			Eventually(func() float64 { return s.Latest().Value }).Should(BeNumerically("~", 0.51, 1e-9))
			Expect(s.Latest().Source).To(Equal("encoder"))
		})
	})

	Describe("Stop", func() {
		It("closes the active source and can be called twice", func() {
			enc := &fakeSource{name: "encoder", value: 0.5}
			s := NewSampler(enc, nil, nil, passthroughConfig(), log)
			Expect(s.Start(context.Background())).To(Succeed())

			s.Stop()
			s.Stop()
			Expect(enc.closed.Load()).To(BeTrue())

			seq := s.Latest().Seq
			Consistently(func() uint64 { return s.Latest().Seq }, 20*time.Millisecond).Should(Equal(seq))
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			s := NewSampler(nil, NewManual(0.5), nil, passthroughConfig(), log)
			Expect(s.Start(ctx)).To(Succeed())
			cancel()

			done := make(chan struct{})
			go func() {
				s.Stop()
				close(done)
			}()
			Eventually(done).Should(BeClosed())
		})
	})
})
