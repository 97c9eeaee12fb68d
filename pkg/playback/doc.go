// Package playback implements the lifecycle of a single sound.
//
// An Instance borrows one voice and moves through Starting, Playing, an
// optional FadingOut and Stopped. Pause is an overlay flag and fading in is
// a modifier on Playing. The engine calls Update once per tick; fades are
// linear ramps measured in accumulated tick time, so a fade of d completes
// on the tick that brings the total past d.
//
// StopImmediate runs the completion callback exactly once. The engine uses
// that callback to return the voice to the pool and unregister the
// instance, which keeps both steps single-shot.
package playback
