// Package connectors provides implementations of the Connector
// interface for document sources. The filesystem connector is the only
// source; it walks a directory tree and can watch it for changes.
package connectors
