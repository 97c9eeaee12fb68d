// Package catalog defines the read-only data the engine plays from: banks of
// entries, their parameters and the mixer-style groups banks belong to.
//
// Banks are built from configuration by pkg/config. Authoring and folder
// scanning happen elsewhere; the engine only iterates a Source.
package catalog
