package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const DefaultSensitivity = 0.0001

// Device reports the absolute count of a rotary encoder. Before its first
// count it returns ErrNoReading.
type Device interface {
	Position() (int64, error)
}

// EncoderSource turns encoder counts into a value in [0, 1]. Each count
// moves the value by Sensitivity. The first count only sets the baseline, so
// the value moves on rotation and never on the resting position. Poll must
// not be called concurrently.
type EncoderSource struct {
	dev         Device
	sensitivity float64
	target      float64
	last        int64
	primed      bool
}

func NewEncoder(dev Device, sensitivity, initial float64) *EncoderSource {
	if sensitivity == 0 {
		sensitivity = DefaultSensitivity
	}
	return &EncoderSource{
		dev:         dev,
		sensitivity: sensitivity,
		target:      clamp01(initial),
	}
}

func (e *EncoderSource) Name() string { return "encoder" }

// Open opens the underlying device if it needs opening.
func (e *EncoderSource) Open(ctx context.Context) error {
	if e.dev == nil {
		return ErrUnavailable
	}
	if o, ok := e.dev.(Opener); ok {
		return o.Open(ctx)
	}
	return nil
}

func (e *EncoderSource) Poll() (float64, error) {
	if e.dev == nil {
		return e.target, ErrUnavailable
	}
	pos, err := e.dev.Position()
	if errors.Is(err, ErrNoReading) {
		return e.target, nil
	}
	if err != nil {
		return e.target, err
	}
	if !e.primed {
		e.last = pos
		e.primed = true
		return e.target, nil
	}
	e.target = clamp01(e.target + float64(pos-e.last)*e.sensitivity)
	e.last = pos
	return e.target, nil
}

func (e *EncoderSource) Close() error {
	if c, ok := e.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LineDevice reads encoder counts from a character device or any file that
// produces one integer per line, such as a microcontroller bridging the
// encoder over USB serial. A reader goroutine keeps the latest count.
type LineDevice struct {
	path string

	mu     sync.Mutex
	rc     io.ReadCloser
	done   chan struct{}
	pos    atomic.Int64
	hasPos atomic.Bool
	failed atomic.Pointer[error]
}

func NewLineDevice(path string) *LineDevice {
	return &LineDevice{path: path}
}

// Open opens the device, giving up when ctx is done.
func (d *LineDevice) Open(ctx context.Context) error {
	type result struct {
		f   *os.File
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := os.Open(d.path)
		ch <- result{f, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.f != nil {
				r.f.Close()
			}
		}()
		return fmt.Errorf("%w: opening %s: %v", ErrUnavailable, d.path, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, r.err)
		}
		d.attach(r.f)
		return nil
	}
}

// attach starts reading from rc.
func (d *LineDevice) attach(rc io.ReadCloser) {
	d.mu.Lock()
	d.rc = rc
	d.done = make(chan struct{})
	d.mu.Unlock()

	go d.read(rc, d.done)
}

func (d *LineDevice) read(r io.Reader, done chan struct{}) {
	defer close(done)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			continue
		}
		d.pos.Store(n)
		d.hasPos.Store(true)
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	err = fmt.Errorf("%w: %s: %v", ErrUnavailable, d.path, err)
	d.failed.Store(&err)
}

// Position returns the latest count, or ErrNoReading until the first line
// arrives. Once the stream ends every call fails with ErrUnavailable.
func (d *LineDevice) Position() (int64, error) {
	d.mu.Lock()
	opened := d.rc != nil
	d.mu.Unlock()
	if !opened {
		return 0, ErrUnavailable
	}
	if err := d.failed.Load(); err != nil {
		return 0, *err
	}
	if !d.hasPos.Load() {
		return 0, ErrNoReading
	}
	return d.pos.Load(), nil
}

// Close stops the reader goroutine.
func (d *LineDevice) Close() error {
	d.mu.Lock()
	rc, done := d.rc, d.done
	d.mu.Unlock()
	if rc == nil {
		return nil
	}
	err := rc.Close()
	<-done
	return err
}
