// Package main hosts the Missive CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the web server, the daily cron tick,
// newsletter registration and listing, notification checks, and configuration
// scaffolding. It centralizes configuration resolution and logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
