// Package errors provides the coded errors shared by the recents packages.
//
// Codes fall into three categories:
//
//   - transient: the relay transport or a peer may recover (UNAVAILABLE, PEER_GONE)
//   - permanent: the same call cannot succeed (DUPLICATE_TASK, TASK_NOT_VISIBLE, ...)
//   - internal: invariant violations and recovered panics
//
// Lookups in the model never fail with an error; they return absent values.
// Errors are reserved for malformed input, such as a task list that repeats
// an identity, for calls addressed through a view that hides the task, and
// for relay transport faults.
//
//	err := errors.DuplicateTask(42)
//	if errors.Is(err, errors.ErrCodeDuplicateTask) {
//	    // reject the snapshot
//	}
//
// An Error marshals to JSON so a relay peer can report it over the wire.
package errors
