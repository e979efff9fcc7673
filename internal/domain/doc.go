// Package domain holds cwship's value types and the rules that involve no
// I/O: record size estimates, the flush threshold, batch splitting limits,
// sequence token handling and delivery counters.
//
// [Record] is one log event. [StreamBuffer] queues records for a stream and
// tracks their estimated payload size. [Batch] is what a flush cycle drains
// from a buffer. [StreamState] remembers whether a stream exists remotely
// and its next sequence token. [Status] is the per-stream delivery tally
// written to the status file.
package domain
