package domain

// Status is the lifecycle tag of a tracked game.
type Status string

// Collection statuses.
const (
	StatusToPlay    Status = "to_play"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// AllStatuses returns every status in display order.
func AllStatuses() []Status {
	return []Status{StatusToPlay, StatusPlaying, StatusCompleted, StatusAbandoned}
}

// Valid returns true if this is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusToPlay, StatusPlaying, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a raw string into a Status.
// The second return value is false when the input is not a known status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.Valid()
}
