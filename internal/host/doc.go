// Package host defines the capabilities the macro engine needs from a
// running GUI process.
//
// The engine never talks to a toolkit directly. Everything it needs (widget
// tree queries, input synthesis, pointer control, the host event loop and
// application-level input observation) is expressed as small interfaces
// that are composed into Host and injected into the Recorder, Player and
// Locator.
//
// # Coordinates
//
// All Widget geometry is expressed in global (screen) coordinates. Local
// coordinates are relative to a widget's origin (the top-left corner of its
// bounding box); use MapFromGlobal and MapToGlobal to convert.
//
// # Threading
//
// Hosts are single-threaded: every method is expected to be called from the
// host's own event loop goroutine. Loop.AfterFunc callbacks also run there.
package host
