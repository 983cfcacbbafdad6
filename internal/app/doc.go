// Package app contains the host-process wiring. It defines the main App
// struct, its configuration, and the startup lifecycle that assembles the
// configuration registry, the synchronization provider and the
// interpreter engine, decoupled from any specific entrypoint like a CLI.
package app
