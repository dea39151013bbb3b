/*
Package domain contains the core domain model of the trolley simulator.

It defines the operator controls, the operating states of the simulated
vehicle, the discrete commands produced by the operator panel, the events
written to the event log, and the fault taxonomy. This package is kept pure
and free of I/O so that every other package can depend on it.

# Key Entities

  - Controls: snapshot of the physical controls (deadman, run level, reverser, brake).
  - Command: a discrete operator action captured as data and applied at a tick boundary.
  - Status: the simulator's owned state (operating state, speed, position).
  - Event: an append-only log record (transition, fault, mark, warning, notice).
  - Fault: a safety violation that forces the vehicle into the Faulted state.
*/
package domain
