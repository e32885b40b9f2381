package model

// Device is a playback target reported by the player API.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

// Playlist is a playable context reported by the player API.
type Playlist struct {
	ID   string `json:"id"`
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// PlayerState is a snapshot of live playback for one account: whether
// anything is playing, on which device, and under which context.
type PlayerState struct {
	IsPlaying    bool
	DeviceID     string
	ContextURI   string
	CurrentItem  string
	ShuffleState bool
}
