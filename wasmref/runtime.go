package wasmref

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/refcount/errors"
	"github.com/wippyai/refcount/shared"
)

// Runtime is a shared wazero runtime. It is closed when the last handle
// to it, including those held by compiled modules and instances, is
// released.
type Runtime = shared.Ptr[wazero.Runtime]

// Compiled is a shared compiled module. It keeps its runtime alive.
type Compiled = shared.Ptr[wazero.CompiledModule]

// Module is a shared module instance. It keeps its runtime and compiled
// module alive.
type Module = shared.Ptr[api.Module]

// Memory is a handle to an instance's memory that keeps the instance alive.
type Memory = shared.Ptr[api.Memory]

// NewRuntime creates a wazero runtime owned by the returned handle.
// A nil cfg uses wazero defaults.
func NewRuntime(ctx context.Context, cfg *Config) Runtime {
	rt := wazero.NewRuntimeWithConfig(ctx, cfg.runtimeConfig())
	closeCtx := context.WithoutCancel(ctx)

	return shared.NewWithOptions(rt, func(rt wazero.Runtime) {
		if err := rt.Close(closeCtx); err != nil {
			Logger().Warn("runtime close failed", zap.Error(err))
		}
	}, cfg.options("runtime"))
}

// Compile compiles wasm bytes against rt. The result holds a reference to
// rt; rt itself is not consumed.
func Compile(ctx context.Context, rt Runtime, bin []byte, cfg *Config) (Compiled, error) {
	if rt.Empty() {
		return Compiled{}, errors.EmptyHandle("wasmref.Runtime")
	}

	cm, err := rt.Get().CompileModule(ctx, bin)
	if err != nil {
		return Compiled{}, errors.Load("compile module", err)
	}

	hold := rt.Clone()
	closeCtx := context.WithoutCancel(ctx)
	return shared.NewWithOptions(cm, func(cm wazero.CompiledModule) {
		if err := cm.Close(closeCtx); err != nil {
			Logger().Warn("compiled module close failed", zap.Error(err))
		}
		hold.Reset()
	}, cfg.options("compiled")), nil
}

// Instantiate instantiates a compiled module under name. An empty name
// instantiates anonymously, which allows several instances side by side.
// The instance holds references to both rt and cm.
func Instantiate(ctx context.Context, rt Runtime, cm Compiled, name string, cfg *Config) (Module, error) {
	if rt.Empty() {
		return Module{}, errors.EmptyHandle("wasmref.Runtime")
	}
	if cm.Empty() {
		return Module{}, errors.EmptyHandle("wasmref.Compiled")
	}

	label := "module"
	if name != "" {
		label += ":" + name
	}

	modConfig := wazero.NewModuleConfig().WithName(name)
	mod, err := rt.Get().InstantiateModule(ctx, cm.Get(), modConfig)
	if err != nil {
		return Module{}, errors.New(errors.PhaseRuntime, errors.KindInstantiation).
			Label(label).
			GoType("api.Module").
			Cause(err).
			Detail("instantiate module").
			Build()
	}

	holdRuntime := rt.Clone()
	holdCompiled := cm.Clone()
	closeCtx := context.WithoutCancel(ctx)
	return shared.NewWithOptions(mod, func(mod api.Module) {
		if err := mod.Close(closeCtx); err != nil {
			Logger().Warn("module close failed",
				zap.String("module", name),
				zap.Error(err))
		}
		holdCompiled.Reset()
		holdRuntime.Reset()
	}, cfg.options(label)), nil
}

// Load compiles and instantiates bin in one step. The compiled module is
// kept alive only by the returned instance.
func Load(ctx context.Context, rt Runtime, bin []byte, name string, cfg *Config) (Module, error) {
	cm, err := Compile(ctx, rt, bin, cfg)
	if err != nil {
		return Module{}, err
	}
	defer cm.Reset()
	return Instantiate(ctx, rt, cm, name, cfg)
}

// ExportedMemory returns a handle to the named exported memory that shares
// ownership of mod. The instance stays open while the memory handle lives.
func ExportedMemory(mod Module, name string) (Memory, error) {
	if mod.Empty() {
		return Memory{}, errors.EmptyHandle("wasmref.Module")
	}
	mem := mod.Get().ExportedMemory(name)
	if mem == nil {
		return Memory{}, errors.NotFound(errors.PhaseLoad, "exported memory", name)
	}
	return shared.Alias(mod, mem), nil
}

// ExportedFunction returns a handle to the named exported function that
// shares ownership of mod.
func ExportedFunction(mod Module, name string) (shared.Ptr[api.Function], error) {
	if mod.Empty() {
		return shared.Ptr[api.Function]{}, errors.EmptyHandle("wasmref.Module")
	}
	fn := mod.Get().ExportedFunction(name)
	if fn == nil {
		return shared.Ptr[api.Function]{}, errors.NotFound(errors.PhaseLoad, "exported function", name)
	}
	return shared.Alias(mod, fn), nil
}
