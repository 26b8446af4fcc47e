// Package memory provides in-memory implementations of the driven ports:
// a vector index, a context cache and a config store. Nothing is persisted.
package memory
