// Package debugflags holds the compile-time debug toggles named in
// spec.md §6. They are plain Go constants, not environment variables — the
// spec explicitly scopes them as "compile-time flags" and "not part of the
// observable interface". Flip them and rebuild to get the corresponding
// instrumentation; this mirrors the teacher's own preference for const
// tables over runtime configuration for internals (e.g. its
// //nolint:revive-annotated opcode const blocks).
package debugflags

const (
	// PrintCode dumps each chunk's disassembly right after compilation.
	PrintCode = false
	// TraceExecution dumps the stack and the current instruction before every
	// dispatch-loop step.
	TraceExecution = false
	// StressGC forces a collection before every allocation, to shake out
	// missing roots.
	StressGC = false
	// LogGC makes the collector write every allocation, mark, blacken, and
	// free to gc.GC.LogWriter; nothing is written while LogWriter is nil.
	LogGC = false
)
