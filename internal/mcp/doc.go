// Package mcp exposes command documentation over the Model Context
// Protocol.
//
// The server speaks JSON-RPC over stdio and registers four tools:
//
//   - get-command-documentation: help output or man page for a command
//   - list-common-commands: installed commands grouped by category
//   - check-command-exists: existence plus version information
//   - get-command-cheatsheet: locally stored markdown cheatsheets
//
// plus a static unixman://categories resource with the category table.
//
// Stdout belongs to the protocol. Everything diagnostic goes through the
// structured logger, which writes to a file and stderr only.
package mcp
