// Package store defines the repository boundary of the application: the
// persistence interfaces the engine and services depend on, and the shared
// error taxonomy their implementations speak.
package store
