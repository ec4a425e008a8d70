package wasmref

import (
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/wippyai/refcount/shared"
)

// Config holds configuration for runtime creation
type Config struct {
	// Observer receives lifecycle events for every handle this package
	// creates. Labels are "runtime", "compiled" and "module" or "module:<name>".
	Observer shared.Observer

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CloseOnContextDone makes running guest code observe cancellation of
	// the context it was called with.
	CloseOnContextDone bool

	// EnableThreads enables the WebAssembly threads proposal (experimental).
	EnableThreads bool
}

func (c *Config) runtimeConfig() wazero.RuntimeConfig {
	rc := wazero.NewRuntimeConfig()
	if c == nil {
		return rc
	}
	if c.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(c.MemoryLimitPages)
	}
	if c.CloseOnContextDone {
		rc = rc.WithCloseOnContextDone(true)
	}
	if c.EnableThreads {
		rc = rc.WithCoreFeatures(api.CoreFeaturesV2 | experimental.CoreFeaturesThreads)
	}
	return rc
}

func (c *Config) options(label string) shared.Options {
	opts := shared.DefaultOptions()
	opts.Label = label
	if c != nil {
		opts.Observer = c.Observer
	}
	return opts
}
