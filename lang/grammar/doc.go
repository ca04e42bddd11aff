// Package grammar holds the language's EBNF grammar as a standalone,
// machine-verifiable artifact, grounded on the teacher's own lang/grammar
// package (which verifies a .ebnf file the same way, against
// golang.org/x/exp/ebnf, the same dependency this package reuses). The
// teacher's own grammar.ebnf/grammar_lua.ebnf files were not present in the
// retrieved copy, only the verifying test; this grammar.ebnf is a fresh
// transcription of spec.md §4.4's expression/statement grammar, not a port
// of anything the teacher shipped.
package grammar
