// Package control samples the scalar input that steers the light source.
//
// A [Sampler] polls one [Source] on its own goroutine, keeps the most recent
// samples in a [Window], smooths them with a [Smoother] and publishes the
// result as a [SmoothedInput]. Readers call [Sampler.Latest], which never
// blocks.
//
// Two sources are bundled:
//
//   - [EncoderSource]: a rotary encoder behind a [Device], such as a
//     [LineDevice] reading counts from a serial port
//   - [ManualSource]: keyboard or mouse driven value, used as the fallback
//
// The source is chosen once, when the sampler starts. If the encoder cannot
// be opened or reports [ErrUnavailable] on its first poll, the sampler logs
// a single warning and runs on the fallback.
//
// # Usage
//
//	manual := control.NewManual(0.5)
//	enc := control.NewEncoder(control.NewLineDevice("/dev/ttyACM0"), 0.0001, 0.5)
//	s := control.NewSampler(enc, manual, &control.EMA{Alpha: 0.15, Snap: 0.001},
//		control.DefaultSamplerConfig(), log)
//	if err := s.Start(ctx); err != nil { ... }
//	defer s.Stop()
//	in := s.Latest()
package control
