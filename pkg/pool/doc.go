// Package pool manages the reusable voices of an output device.
//
// A Pool lends voices to playback instances and takes them back when the
// instance finishes. Capacity is soft: when every voice is busy the pool
// recycles the non-looping voice that has played the least, and only
// creates a voice beyond capacity when every busy voice loops. Both cases
// are counted in metrics and neither fails the request.
//
//	p := pool.New(dev, pool.Options{Capacity: 32, OnRecycle: eng.dropVoice})
//	v, err := p.Acquire(nil)
//	...
//	p.Release(v)
package pool
