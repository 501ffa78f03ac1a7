// Package app provides the application service layer.
//
// Keeps the embedded browser in step with native state: it opens the
// integration and HUD surfaces, reloads them when the theme changes, pushes
// overlay component changes to the pages, and samples tick-driven state.
// Depends on domain interfaces, not concrete implementations.
package app
