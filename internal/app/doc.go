// Package app wires configuration, logging, the loader, the binary formats
// and the catalog into the statedict commands.
package app
