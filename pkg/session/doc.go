/*
Package session implements the session lifecycle around a workflow machine.

It provides the pieces that tie a machine to the outside world and tear them down
together: engine subscription lifetimes, single-shot timers, the debug notice board,
the ordered reset procedure, and a Manager that keeps live sessions by id and
persists their snapshots for inspection from other processes.
*/
package session
