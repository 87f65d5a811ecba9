// Package process provides an asynchronous handle to one operating-system
// process.
//
// A Process tracks the identity, openness and cached exit status of a single
// subprocess and exposes signal-like control operations on it. Exit
// notifications are delivered through AsyncWait, a one-shot callback
// registration dispatched on the handle's associated executor loop; Wait
// builds on it to block the calling goroutine until the outcome arrives.
//
// Every control operation comes in two forms backed by one implementation:
// an error-returning form and a Must form that panics on failure. Failing to
// register an exit subscription at all (waiting on a handle that is not
// open) is a precondition violation and panics in both forms; it is never
// reported through the error channel that carries ordinary wait outcomes.
//
// A handle that still owns an open, unexited process terminates it on Close.
// Detach relinquishes that ownership and hands back the raw OS handle.
package process
