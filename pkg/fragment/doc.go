/*
Package fragment splits oversized sync payloads into transportable
chunks and reassembles them on the receiving side.

A Fragmenter caps each chunk at a byte ceiling (256 KiB by default,
matching the plaintext-per-fragment budget in §4.D and §6). A
Reassembler collects fragments by message id until every index has
arrived, then concatenates them in order; it tolerates duplicates, out-
of-order arrival, and abandons partial state past an expiry horizon.
*/
package fragment
