package core

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit
// message) down to stores that version their writes.
const ChangeReasonKey contextKey = "change_reason"
