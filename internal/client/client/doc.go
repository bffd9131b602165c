// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
// The package provides:
//  1. A gRPC implementation of the remote entity API (see GRPCClient and
//     EntityClient) that manages a connection, injects an access token via an
//     interceptor, bounds every call with a timeout and maps gRPC status codes
//     to sentinel errors.
//  2. Local persistence bootstrap utilities (InitDatabase, RunMigrations),
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Remote failures are classified so the sync worker can decide whether a
// change is worth retrying. Match them with errors.Is:
//
//   - ErrRemoteNotFound: the entity does not exist remotely.
//   - ErrRemoteRejected: the server refused the change; retrying will not help.
//   - ErrRemoteTransient: network or server trouble; retry later.
//   - ErrUnauthorized: the access token was refused.
//
// ErrUnavailable is additionally wrapped when the server cannot be reached.
package client
