/*
Package store persists encrypted updates and snapshots for the relay.
It never sees plaintext: every value it stores is an already-sealed
envelope. Updates live under a composite
projectId|deviceId|sequence key so a per-project range scan returns
them ordered by (deviceId, sequence); a project's snapshot is a single
key that the next storeSnapshot call atomically overwrites.

Adapted from the bucket-per-entity BoltDB store in pkg/storage, which
this package narrows to the two buckets the sync protocol needs.
*/
package store
