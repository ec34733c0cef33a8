/*
Package log provides sakya's structured logging, built on zerolog.

A single global Logger is configured once via Init and read from every
other package in the module. Component loggers (WithComponent,
WithConnID, WithProjectID, WithDeviceID) attach the identifiers that
actually show up in this system's logs: a relay connection, a project,
a device. Use them instead of the bare Logger wherever a log line is
scoped to one of those.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	connLog := log.WithConnID(connID.String())
	connLog.Info().Msg("authenticated")

	roomLog := log.WithProjectID(projectID.String())
	roomLog.Warn().Int("lagged_by", n).Msg("subscriber fell behind")

Never log plaintext project content, encryption keys, bearer tokens, or
magic-link tokens — only identifiers and counts.
*/
package log
