// Package loader provides the asset loaders the engine reads clips from.
//
// # FileLoader
//
// FileLoader resolves keys below a root directory and decodes WAV, MP3,
// Ogg Vorbis and FLAC files with beep into in-memory buffers. Decoded
// sounds are cached until unloaded. Synchronous loads retry transient
// failures; every attempt is bounded by the load timeout.
//
//	l := loader.NewFileLoader(cfg.Loader,
//		loader.WithTimeout(cfg.Engine.LoadTimeout),
//		loader.WithRetries(cfg.Engine.LoadRetryCount),
//	)
//
// # MemoryLoader
//
// MemoryLoader serves clips added in memory and lets tests program
// failures and hold async completions until they call Complete.
package loader
