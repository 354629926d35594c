// Package controller holds the pool heater's runtime state: Wi-Fi link,
// relay, control defaults, temperature probes, and the last staged
// firmware image.
//
// The hardware integrations are stubs. Wi-Fi scan results and probe
// readings are fixed values; saving Wi-Fi settings or staging firmware only
// updates in-memory state.
//
// Thread Safety:
//   - All State methods are safe for concurrent use.
//   - Getters return copies; callers may modify them freely.
package controller
