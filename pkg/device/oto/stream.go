package oto

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/gopxl/beep/v2"
)

const bytesPerSample = 4

// stream renders a beep streamer as interleaved float32 little endian PCM
// for an oto player. It is read from oto's goroutine and controlled from
// the engine's, so every field is guarded.
type stream struct {
	mu       sync.Mutex
	src      beep.StreamSeeker
	loop     bool
	channels int
	frames   int
	ended    bool
	scratch  [][2]float64
}

func newStream(channels int) *stream {
	if channels < 1 {
		channels = 2
	}
	return &stream{channels: channels}
}

func (s *stream) bytesPerFrame() int {
	return s.channels * bytesPerSample
}

// reset binds src, rewinds it and clears the played frame count.
func (s *stream) reset(src beep.StreamSeeker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.src = src
	s.frames = 0
	s.ended = src == nil
	if src != nil {
		_ = src.Seek(0)
	}
}

func (s *stream) setLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// position returns the frames handed to the player within the current
// pass over the clip.
func (s *stream) position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *stream) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Read implements io.Reader. It returns io.EOF once a non-looping clip has
// been fully read.
func (s *stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || s.src == nil {
		return 0, io.EOF
	}

	frameSize := s.bytesPerFrame()
	want := len(p) / frameSize
	if want == 0 {
		return 0, nil
	}
	if cap(s.scratch) < want {
		s.scratch = make([][2]float64, want)
	}
	buf := s.scratch[:want]

	filled := 0
	for filled < want {
		n, ok := s.src.Stream(buf[filled:])
		filled += n
		s.frames += n
		if ok && n > 0 {
			continue
		}
		if !s.loop || s.src.Len() == 0 {
			s.ended = true
			break
		}
		if err := s.src.Seek(0); err != nil {
			s.ended = true
			break
		}
		s.frames = 0
	}

	for i, frame := range buf[:filled] {
		off := i * frameSize
		if s.channels == 1 {
			putSample(p[off:], (frame[0]+frame[1])/2)
			continue
		}
		putSample(p[off:], frame[0])
		putSample(p[off+bytesPerSample:], frame[1])
		for c := 2; c < s.channels; c++ {
			putSample(p[off+c*bytesPerSample:], 0)
		}
	}

	if filled == 0 {
		return 0, io.EOF
	}
	return filled * frameSize, nil
}

func putSample(b []byte, v float64) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
}
