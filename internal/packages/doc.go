// Package packages implements the list, versions, clean and browse commands.
//
// CommandBuilder wires the Cobra commands, Service runs listing and delete
// orchestration against a ghcr.Registry, and DefaultRegistryResolver picks the
// gh or REST backend from configuration, resolving API tokens from the
// environment or a token file.
package packages
