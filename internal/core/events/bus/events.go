package bus

// Event types published by the simulation.
const (
	EventTrackLoaded   = "track.loaded"
	EventTrackUnloaded = "track.unloaded"
	EventLap           = "race.lap"
	EventRaceFinished  = "race.finished"
)

// TrackLoaded is the payload of EventTrackLoaded.
type TrackLoaded struct {
	Session     string `json:"session"`
	Level       string `json:"level"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Cars        int    `json:"cars"`
	Colliders   int    `json:"colliders"`
	Checkpoints int    `json:"checkpoints"`
	// CachedField is set when the guidance field came from the cache.
	CachedField bool `json:"cachedField"`
}

// Lap is the payload of EventLap.
type Lap struct {
	CarID  uint64 `json:"carId"`
	Car    string `json:"car"`
	Player bool   `json:"player"`
	Lap    uint32 `json:"lap"`
	Tick   uint64 `json:"tick"`
}

// RaceFinished is the payload of EventRaceFinished, sent once per race for
// the first car to complete every lap.
type RaceFinished struct {
	CarID  uint64 `json:"carId"`
	Car    string `json:"car"`
	Player bool   `json:"player"`
	Laps   uint32 `json:"laps"`
	Tick   uint64 `json:"tick"`
}
