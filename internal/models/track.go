package models

import "regexp"

// TrackIdentifier is a Spotify track URI such as spotify:track:4uLU6hMCjMI75M1A2tKUQC.
type TrackIdentifier string

var trackURIPattern = regexp.MustCompile(`^spotify:track:[0-9A-Za-z]{22}$`)

// Valid reports whether the identifier has the track URI shape.
//
// Local files (spotify:local:...), episodes and empty references are not valid.
func (t TrackIdentifier) Valid() bool {
	return trackURIPattern.MatchString(string(t))
}

func (t TrackIdentifier) String() string { return string(t) }

// TrackList is an ordered list of identifiers without duplicates.
type TrackList []TrackIdentifier

// Dedupe returns ids with later duplicates dropped, keeping first-seen order.
func Dedupe(ids []TrackIdentifier) TrackList {
	seen := make(map[TrackIdentifier]struct{}, len(ids))
	out := make(TrackList, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Strings returns the identifiers as plain strings, the form the write endpoint expects.
func (l TrackList) Strings() []string {
	out := make([]string, len(l))
	for i, id := range l {
		out[i] = string(id)
	}
	return out
}
