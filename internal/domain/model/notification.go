package model

import (
	"image"
	"time"
)

// NotificationKind tells listeners what happened to a scene occurrence.
type NotificationKind string

const (
	// KindStill fires once when an occurrence is first observed.
	KindStill NotificationKind = "still"
	// KindComplete fires once when an occurrence is confirmed to have ended.
	KindComplete NotificationKind = "complete"
)

// Priority orders notifications under backpressure.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
)

// Notification is emitted by a scene to external listeners.
type Notification struct {
	ID           string           `json:"id"`
	Kind         NotificationKind `json:"kind"`
	Priority     Priority         `json:"priority"`
	Scene        string           `json:"scene"`
	OccurrenceID string           `json:"occurrence_id"`
	Msec         int64            `json:"msec"`
	CreatedAt    time.Time        `json:"created_at"`
	Frame        *image.RGBA      `json:"-"`
	Record       *ResultRecord    `json:"record,omitempty"`
}

// DedupeKey names the event n reports. An occurrence reports each kind at most
// once, so the key is the occurrence and kind; notifications outside an
// occurrence fall back to their id.
func (n *Notification) DedupeKey() string {
	if n.OccurrenceID == "" {
		return n.ID
	}
	return n.OccurrenceID + "/" + string(n.Kind)
}
