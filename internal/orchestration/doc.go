// Package orchestration owns the single long-running task and the
// concurrent-versus-sequential fetch demonstration. It publishes every
// lifecycle transition on a statebus.Bus and stays decoupled from
// presentation through the Renderer interface and the shared Transcript.
package orchestration
