package domain

// City is a read-only row of the cities reference collection.
type City struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	StateID   *int64   `json:"state_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timezone  *string  `json:"timezone"`
}

// State is a read-only row of the states reference collection.
type State struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Code    *string `json:"code"`
	Country *string `json:"country"`
}

// CityFields is the projection loaded for cities.
var CityFields = []string{"id", "name", "state_id", "latitude", "longitude", "timezone"}

// StateFields is the projection loaded for states.
var StateFields = []string{"id", "name", "code", "country"}
