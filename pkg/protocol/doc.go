/*
Package protocol defines the wire message set exchanged between the
sync client engine and the relay server, and its JSON codec.

Message is a tagged union: every variant carries a "type" discriminator
alongside its own fields, encoded and decoded through a single JSON
shape so a version-N+1 client can still parse a message carrying fields
it doesn't recognize, and a version-N server can still ignore a
variant it doesn't implement rather than fail the connection (§4.C,
§7: UnknownVariant is tolerated, not fatal).
*/
package protocol
