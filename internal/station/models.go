package station

type BikeStatus string

const (
	BikeAvailable   BikeStatus = "AVAILABLE"
	BikeInUse       BikeStatus = "IN_USE"
	BikeCharging    BikeStatus = "CHARGING"
	BikeMaintenance BikeStatus = "MAINTENANCE"
)

type Bike struct {
	ID      string     `json:"id"`
	Plate   string     `json:"plate"`
	Status  BikeStatus `json:"status"`
	Battery int        `json:"battery"`
}

// Dock is where a bike currently sits.
type Dock struct {
	BikeID      string     `json:"bikeId"`
	StationID   string     `json:"stationId"`
	StationName string     `json:"stationName"`
	Status      BikeStatus `json:"status"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Station struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	BikeList    []Bike      `json:"bikeList"`
	// DistanceKm is only set on nearby results.
	DistanceKm float64 `json:"distanceKm,omitempty"`
}

// AvailableBikes counts bikes that can be unlocked right now.
func (s Station) AvailableBikes() int {
	n := 0
	for _, b := range s.BikeList {
		if b.Status == BikeAvailable {
			n++
		}
	}
	return n
}

type QueryResponse struct {
	Data []Station `json:"data"`
}

// Cluster groups the stations sharing one geohash cell at a map zoom level.
type Cluster struct {
	Geohash    string      `json:"geohash"`
	Center     Coordinates `json:"center"`
	Count      int         `json:"count"`
	StationIDs []string    `json:"stationIds"`
}
