package models

// PlaylistSummary is a snapshot of one of the user's playlists as listed by the provider.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	TrackCount  int    `json:"track_count"`
	ImageURL    string `json:"image_url,omitempty"`
}

// PlaylistPage is one page of the user's playlists along with the reported total.
type PlaylistPage struct {
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Items  []PlaylistSummary `json:"items"`
}

// DestinationPlaylist is the playlist created to hold the combined tracks.
type DestinationPlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// User is the authenticated provider account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
