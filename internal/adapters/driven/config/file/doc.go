// Package file provides the TOML-backed settings store. Settings are
// read from a config file in the quarry directory, with environment
// variables applied on top, so credentials can stay out of the file.
package file
