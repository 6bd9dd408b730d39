// Package cli implements the interactive BizKeeper client: a small REPL over
// the local record store with background connectivity watching and sync
// triggering.
package cli
