/*
Package async provides the scheduler of asynchronous cross-contract calls.

Every scheduled call is identified by a request token. A call may be followed
by a callback which is queued only after all calls it waits for are resolved.
The callback receives results of these calls in the order they were
scheduled. Each request token is resolved at most once, repeated delivery is
rejected with ErrAlreadyResolved.
*/
package async
