// Package extpower fetches an authoritative power reading from an external
// monitoring source — a Home Assistant style REST sensor endpoint. When such
// a reading is available it takes priority over the internal power model.
package extpower

// sensorState is the JSON shape of a Home Assistant states response. The
// state value is a string ("42.5", or "unavailable" when the sensor is
// offline); attributes carry the unit and friendly name.
type sensorState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated string         `json:"last_updated"`
}
