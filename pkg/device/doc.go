// Package device defines the audio output surface the engine drives.
//
// # Overview
//
// The engine never talks to an audio API directly. It sees three things:
//
//   - Device: a factory for voices
//   - Voice: one reusable playback channel with volume, pitch, loop,
//     priority and spatial parameters
//   - Clip: an opaque handle to decoded audio exposing a duration and a
//     sample rate
//
// # Backends
//
// Headless produces no sound. Voice positions move only when Advance is
// called, so tests and the "headless" backend are fully deterministic.
// The oto sub-package plays decoded clips through github.com/ebitengine/oto/v3.
//
// # Spatial Parameters
//
// Spatial blend, min/max distance, doppler and spread are stored on the
// voice and reported back. No backend renders them.
package device
