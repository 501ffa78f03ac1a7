// Package liveupdate pushes native state changes to the browser pages over
// WebSocket.
//
// The Hub is an actor: one goroutine owns the page map and processes
// commands from a channel. Each page has its own bounded queue and writer
// goroutine. Snapshot events replace their queued predecessor, and a page
// whose queue still overflows is disconnected instead of slowing the others
// down. A page may subscribe to a subset of events with ?events=a,b.
package liveupdate
