// Package tasks implements the combine run: paging, track aggregation, batched writes and the
// state machine that sequences them.
//
// [Engine] is the entry point used by the CLI and TUI. It checks the stored session, loads
// playlist pages into a [models.PlaylistCatalog], and runs [Engine.Run] over a selection:
//
//	Idle → ValidatingSession → FetchingTracks → CreatingDestination → WritingTracks → Done
//
// with [Failed] reachable from any state after Idle. Progress is reported through a
// [ProgressFunc] on every transition; [ChannelProgress] adapts it to a channel for UI layers.
//
// [FetchAllPages] is the generic pager shared by playlist and track listings. It returns an
// [iter.Seq2] that requests nothing until ranged over and is bounded by the reported total.
//
// Failures are typed: [*FetchFailedError], [*CreateFailedError] and [*WriteFailedError] carry
// the resource, offset or chunk and the provider status code. [Reason] maps them to short
// strings stored with each run.
package tasks
