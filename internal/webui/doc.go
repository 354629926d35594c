// Package webui serves the controller's browser admin page.
//
// The page, stylesheet, and script are embedded into the binary with
// go:embed so the controller has no runtime dependency on external files.
// The script talks only to the JSON API under /api; it keeps the session
// token in sessionStorage and returns to the login form when a response
// carries X-Session-Expired.
package webui
