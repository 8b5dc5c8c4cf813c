// Package app sits between hosts and the task store.
//
// Hosts (the CLI and the TUI) build Intents and pass them to
// Service.Dispatch, which applies them to the store and saves the state
// after every change. Service.View turns the store into render-ready
// records so hosts never format tasks themselves.
package app
