// Package logs reads daemon log files incrementally so the CLI can tail and
// follow them over IPC without holding a file handle open across requests.
package logs
