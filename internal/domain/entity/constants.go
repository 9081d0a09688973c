package entity

// User roles
const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
)

// Travel modes, keyed by travel_mode_id
const (
	TravelModeFlight = 1
	TravelModeTrain  = 2
	TravelModeBus    = 3
	TravelModeCab    = 4
)

// travelModeCodes maps a travel mode to the letter embedded in request ids
var travelModeCodes = map[int]string{
	TravelModeFlight: "F",
	TravelModeTrain:  "T",
	TravelModeBus:    "B",
	TravelModeCab:    "C",
}

// TravelModeCode returns the request id letter for a mode, defaulting to flight
func TravelModeCode(modeID int) string {
	if code, ok := travelModeCodes[modeID]; ok {
		return code
	}
	return "F"
}

// IsKnownTravelMode reports whether the id names a configured travel mode
func IsKnownTravelMode(modeID int) bool {
	_, ok := travelModeCodes[modeID]
	return ok
}
