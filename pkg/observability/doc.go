/*
Package observability provides tools for monitoring the trolley simulator.

It includes Prometheus metrics fed from lifecycle hooks and player command
callbacks, plus hooks that write transitions and faults to a structured logger.
*/
package observability
