// Package cli provides the interactive Skydex command-line client.
//
// It wires configuration, the local sqlite collection store, the server
// API client and an interactive REPL. Typical flow: restore the saved
// session, then let the user discover clouds from photo files and browse
// the collection.
//
// Key features:
//   - Register / Login / Logout against the Skydex server
//   - Discover: recognize a photo and light the matching card
//   - Collection browsing: list, show, stats
//   - Unlock card hints with points
//   - Sync the local collection with the server ledger
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
