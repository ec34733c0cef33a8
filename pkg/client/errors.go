package client

import "errors"

// ErrProjectNotEnabled is returned by SendUpdate for a project that has
// not been enabled on this engine.
var ErrProjectNotEnabled = errors.New("client: project not enabled")

// ErrShutdown indicates the engine has been disconnected and will not
// reconnect.
var ErrShutdown = errors.New("client: engine shut down")
