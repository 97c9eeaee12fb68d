// Package oto is a device backend that plays voices through the system
// audio output using github.com/ebitengine/oto/v3.
//
// Each voice owns an oto player fed by a stream that renders the clip's
// beep streamer as float32 PCM. Clips must implement Streamable, as
// sounds decoded by the file loader do. Clips at a different sample rate
// than the device are resampled on the fly.
//
// Volume is applied by the player. Pitch, priority and spatial settings
// are stored so the engine can read them back, but no DSP is applied.
package oto
