/*
Package ports defines the driven ports (interfaces) of the trolley simulator.

These interfaces decouple the state machine from the operator panel, the
video player and the event log, so each can be swapped for a scripted or
in-memory implementation.

# Key Interfaces

  - InputSurface: Read-only view of the operator controls plus the queue of discrete commands.
  - Player: The external video player driven by the video command emitter.
  - EventSink: Append-only log of transitions, faults and marks.
*/
package ports
