/*
Package queue persists one client-project pair's outbound updates to
disk while the sync client engine is disconnected. Each entry is its
own file named by its zero-padded sequence number, so a lexicographic
directory listing is already in send order; Drain never deletes
anything, and callers remove entries individually once a send
succeeds, or Clear the whole queue once a snapshot supersedes it.

Adapted from the directory-per-resource layout in pkg/volume's local
driver: a base directory holding one file per logical unit, created
with MkdirAll and written via a temp-file-then-rename for crash safety.
*/
package queue
