/*
Package reconnect implements the sync client's exponential-backoff
reconnect policy: base delay doubling per attempt up to a cap, jittered
by a configurable factor. A successful authentication calls Reset; a
failed connection attempt calls NextDelay to learn how long to sleep
before retrying.
*/
package reconnect
