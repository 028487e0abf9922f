// Package flow holds the two user-facing interactions of CodeBin as explicit
// state machines:
//
//	Submission: Idle → (Validating) → Submitting → Success | Failed
//	Retrieval:  Loading → Loaded | NotFound | Error
//
// Each flow object owns its state; nothing is shared between flows. A flow also
// owns a lifetime context: Close cancels any request still in flight, and a
// response that arrives after Close, or after a newer navigation, is dropped
// without touching state.
//
// Views (the web pages, the CLI) render a flow through its Snapshot and never
// read the fields directly.
package flow
