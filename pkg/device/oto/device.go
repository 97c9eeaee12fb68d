package oto

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep/v2"

	"mercator-hq/cadence/pkg/config"
	"mercator-hq/cadence/pkg/device"
)

// ErrClosed is returned by NewVoice after Close.
var ErrClosed = errors.New("oto: device closed")

var (
	_ device.Device = (*Device)(nil)
	_ device.Voice  = (*Voice)(nil)
)

// Streamable is a clip whose samples can be streamed. Clips decoded by
// the file loader implement it.
type Streamable interface {
	device.Clip
	Streamer() beep.StreamSeeker
}

// Device plays voices through the system audio output.
//
// oto allows a single context per process, so a process should create at
// most one Device.
type Device struct {
	ctx      *oto.Context
	rate     beep.SampleRate
	channels int
	logger   *slog.Logger

	mu     sync.Mutex
	voices map[uint64]*Voice
	nextID uint64
	closed bool
}

// New opens the audio output and waits until it is ready.
func New(cfg config.DeviceConfig, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = config.DefaultDeviceSampleRate
	}
	channels := cfg.ChannelCount
	if channels <= 0 {
		channels = config.DefaultDeviceChannelCount
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("oto: open audio output: %w", err)
	}
	<-ready

	d := &Device{
		ctx:      ctx,
		rate:     beep.SampleRate(rate),
		channels: channels,
		logger:   logger.With("component", "device", "backend", "oto"),
		voices:   make(map[uint64]*Voice),
	}
	d.logger.Info("audio output ready",
		"sample_rate", rate,
		"channels", channels,
		"buffer", cfg.BufferSize,
	)
	return d, nil
}

// NewVoice implements device.Device.
func (d *Device) NewVoice() (device.Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	d.nextID++
	v := &Voice{
		id:      d.nextID,
		device:  d,
		stream:  newStream(d.channels),
		volume:  1,
		pitch:   1,
		spatial: device.DefaultSpatial(),
	}
	d.voices[v.id] = v
	return v, nil
}

// Suspend pauses the whole output, for example while the host is in the
// background.
func (d *Device) Suspend() error { return d.ctx.Suspend() }

// Resume resumes the output after Suspend.
func (d *Device) Resume() error { return d.ctx.Resume() }

// Close closes every voice. The oto context itself lives until the
// process exits.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	voices := make([]*Voice, 0, len(d.voices))
	for _, v := range d.voices {
		voices = append(voices, v)
	}
	d.mu.Unlock()

	var errs []error
	for _, v := range voices {
		errs = append(errs, v.Close())
	}
	return errors.Join(errs...)
}

func (d *Device) remove(v *Voice) {
	d.mu.Lock()
	delete(d.voices, v.id)
	d.mu.Unlock()
}

// source adapts a clip to the device sample rate.
func (d *Device) source(c device.Clip) (beep.StreamSeeker, error) {
	s, ok := c.(Streamable)
	if !ok {
		return nil, fmt.Errorf("oto: clip %T has no sample data", c)
	}
	src := s.Streamer()
	if rate := beep.SampleRate(s.SampleRate()); rate != d.rate && rate > 0 {
		return &resampled{StreamSeeker: src, r: beep.Resample(4, rate, d.rate, src)}, nil
	}
	return src, nil
}

// resampled streams through a resampler while keeping the seekable
// source for rewinds.
type resampled struct {
	beep.StreamSeeker
	r *beep.Resampler
}

func (r *resampled) Stream(samples [][2]float64) (int, bool) { return r.r.Stream(samples) }
func (r *resampled) Err() error                            { return r.r.Err() }

func frameDuration(rate beep.SampleRate, frames int) time.Duration {
	if frames <= 0 {
		return 0
	}
	return rate.D(frames)
}
