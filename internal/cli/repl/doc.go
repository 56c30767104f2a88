// Package repl is the interactive loop behind "dirmesh-cli shell".
//
// It reads one line at a time, keeps a history file and hands each line,
// split into words, to an Executor. Command semantics live with the
// executor; the loop only knows how to stop.
package repl
