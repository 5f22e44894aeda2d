package provisioning

import "time"

// TimeProvider is an interface that provides a Now method to get the current time.
type TimeProvider interface {
	Now() time.Time
}

// Real implementation for production.
type realTimeProvider struct{}

func (r *realTimeProvider) Now() time.Time { return time.Now() }

// Timeline tracks temporal aspects of an entity's lifecycle.
type Timeline struct {
	createdAt    time.Time
	lastUpdate   time.Time
	timeProvider TimeProvider
}

// NewTimeline creates a new Timeline instance.
func NewTimeline(timeProvider TimeProvider) *Timeline {
	now := timeProvider.Now()
	return &Timeline{
		createdAt:    now,
		lastUpdate:   now,
		timeProvider: timeProvider,
	}
}

// ReconstructTimeline creates a Timeline from persisted timestamps.
// This should only be used by repositories when loading from storage.
func ReconstructTimeline(createdAt, lastUpdate time.Time) *Timeline {
	return &Timeline{
		createdAt:    createdAt,
		lastUpdate:   lastUpdate,
		timeProvider: new(realTimeProvider),
	}
}

// CreatedAt returns the time the entity was created.
func (t *Timeline) CreatedAt() time.Time { return t.createdAt }

// LastUpdate returns the time the entity was last updated.
func (t *Timeline) LastUpdate() time.Time { return t.lastUpdate }

// UpdateLastUpdate updates the last update timestamp.
func (t *Timeline) UpdateLastUpdate() {
	t.lastUpdate = t.timeProvider.Now()
}
