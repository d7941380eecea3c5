// Package optnix provides offline search over NixOS, Home Manager and
// nix-darwin configuration option documentation. It fetches published HTML
// documentation, extracts structured option records, builds in-memory search
// indices, and answers term/prefix/hierarchical queries for an MCP client —
// all backed by a two-tier (memory + filesystem) cache so queries keep
// working without network access.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/) or their domain
// (e.g., index/, search/, cache/, source/).
package optnix
