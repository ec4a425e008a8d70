// Package wasmref puts wazero objects under shared ownership.
//
// A runtime, the modules compiled against it and their instances form an
// ownership chain: each instance holds its compiled module and runtime,
// each compiled module holds its runtime. Handles can be released in any
// order and every object is closed exactly once, after everything that
// depends on it.
//
//	rt := wasmref.NewRuntime(ctx, nil)
//	mod, err := wasmref.Load(ctx, rt, wasmBytes, "", nil)
//	rt.Reset() // runtime stays open for mod
//
//	mem, err := wasmref.ExportedMemory(mod, "memory")
//	mod.Reset() // instance stays open for mem
//	mem.Reset() // closes the instance, then the runtime
package wasmref
