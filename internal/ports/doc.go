// Package ports holds the interfaces internal/app needs from the outside
// world. internal/adapters provides the implementations.
//
//   - [LogsClient] finds, creates and appends to remote log streams.
//     The cloudwatch adapter talks to CloudWatch Logs; the memory adapter
//     backs dry runs and tests.
//   - [IdentityResolver] yields the instance identifier used in annotations.
//   - [StatusRepository] stores the delivery counters between runs.
//   - [Logger] is the structured logger, an alias of pkg/log.Logger.
//
// Nothing in this package does I/O.
package ports
