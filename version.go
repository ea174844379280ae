package ratmaze

import _ "embed"

// Version is the release of the module, taken from the VERSION file.
//
//go:embed VERSION
var Version string
