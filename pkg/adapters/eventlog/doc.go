/*
Package eventlog holds the append-only event log sinks.

Sub-packages provide the concrete backends:

  - file: line-oriented log file, the default session log.
  - memory: in-process slice, for tests and the diagnostics endpoint.
  - redis: capped Redis list, an optional mirror for a floor dashboard.

Tee fans one event out to several sinks.
*/
package eventlog
