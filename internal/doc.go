// Package internal wires the equivalence checker into a file-level
// engine.
//
// Engine reads a program, obtains its transformation from the configured
// rewriter and runs the refinement loop of package equiv on the pair.
// Verdicts are cached on disk, keyed by the program text, the rewriter
// output and the engine configuration, so unchanged files are not
// solved again. A Watcher re-checks programs as they are written.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.EngineConfig{CacheDir: ".eqv-cache"}, logger)
//	if err != nil {
//	    // handle error
//	}
//
//	result, err := engine.Run(ctx, "path/to/program.js")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(result.Report)
package internal
