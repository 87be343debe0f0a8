package config

import _ "embed"

// embeddedCueSchema holds the compiled-in CUE schema so the binary validates
// csvs-convert.yml without depending on an external schema file at runtime.
//
//go:embed config_schema.cue
var embeddedCueSchema []byte
