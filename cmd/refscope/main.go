package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/refcount/internal/playground"
	"github.com/wippyai/refcount/resource"
	"github.com/wippyai/refcount/shared"
	"github.com/wippyai/refcount/wasmref"
)

func main() {
	var (
		scriptFile  = flag.String("script", "", "Run playground commands from a file")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log handle lifecycle to stderr")
		historySize = flag.Int("history", 64, "Number of lifecycle events to keep")
		wasmFile    = flag.String("wasm", "", "Load a core wasm module and trace its ownership chain")
		memoryName  = flag.String("memory", "memory", "Exported memory to alias with -wasm")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = l
		shared.SetLogger(l)
		resource.SetLogger(l)
		wasmref.SetLogger(l)
	}
	defer logger.Sync()

	if *wasmFile != "" {
		if err := runWasm(context.Background(), *wasmFile, *memoryName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	session := playground.NewSession(playground.Config{
		Logger:       logger,
		HistoryLimit: *historySize,
	})
	defer session.Close()

	if *scriptFile != "" {
		if err := runScript(session, *scriptFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *interactive || term.IsTerminal(int(os.Stdin.Fd())) {
		if err := runInteractive(session); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Piped input is treated as a script.
	if err := session.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runScript(session *playground.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	return session.Run(f, os.Stdout)
}

func runWasm(ctx context.Context, path, memoryName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	cfg := &wasmref.Config{
		Observer: shared.ObserverFunc(func(e shared.Event) {
			fmt.Printf("  [block %d] %s %s\n", e.BlockID, e.Label, e.Type)
		}),
	}

	rt := wasmref.NewRuntime(ctx, cfg)
	mod, err := wasmref.Load(ctx, rt, data, "", cfg)
	if err != nil {
		rt.Reset()
		return fmt.Errorf("load: %w", err)
	}
	fmt.Printf("Loaded %s\n", path)
	fmt.Printf("  runtime use=%d module use=%d\n", rt.UseCount(), mod.UseCount())

	mem, err := wasmref.ExportedMemory(mod, memoryName)
	if err != nil {
		fmt.Printf("No exported memory %q; releasing module\n", memoryName)
		rt.Reset()
		mod.Reset()
		return nil
	}
	fmt.Printf("Aliased memory %q (%d bytes), module use=%d\n", memoryName, mem.Get().Size(), mod.UseCount())

	fmt.Println("Releasing runtime handle")
	rt.Reset()
	fmt.Println("Releasing module handle")
	mod.Reset()
	fmt.Printf("Memory still readable: %d bytes\n", mem.Get().Size())
	fmt.Println("Releasing memory handle")
	mem.Reset()
	return nil
}
