// Package normalisers provides implementations of the Normaliser
// interface for the supported text formats, plus the registry that
// selects one per MIME type.
package normalisers
