// Package models defines the domain types for combining Spotify playlists.
//
// The package contains two categories of types:
//
// 1. Transient values: snapshots of provider data held in memory during a session
//   - [Session] : Bearer credential and expiry captured from the authorization redirect
//   - [PlaylistSummary] : One of the user's playlists
//   - [PlaylistCatalog] : Loaded playlists plus the [SelectionSet]
//   - [TrackIdentifier] : Spotify track URI, filtered by [TrackIdentifier.Valid]
//   - [TrackList] : Ordered, duplicate free identifiers built by [Dedupe]
//   - [DestinationPlaylist] : The playlist created to hold the combined tracks
//
// 2. Persistent entities: database-backed records
//   - [AggregationRun] : Metadata about one combine run
//
// Persistent entities implement the Model interface and are stored through a Repository[T].
package models
