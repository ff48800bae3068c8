// Package config provides configuration loading for LumaCue Core.
//
// Configuration is loaded in three layers: built-in defaults, a YAML file,
// and LUMACUE_* environment variable overrides. The merged result is
// validated before use so a bad config fails at startup rather than at the
// first frame.
package config
