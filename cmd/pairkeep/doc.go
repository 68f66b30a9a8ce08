// Command pairkeep is the CLI for the pairkeep daemon. It talks to the daemon
// over its Unix socket and falls back to direct configuration access for
// offline utilities like config init.
package main
