package station

import (
	"fmt"
	"sort"

	"github.com/mmcloughlin/geohash"
)

// PrecisionForZoom maps a map zoom level to a geohash length: coarse cells
// when zoomed out, single blocks when zoomed in.
func PrecisionForZoom(zoom float64) uint {
	switch {
	case zoom <= 10:
		return 4
	case zoom <= 13:
		return 5
	case zoom <= 15:
		return 6
	default:
		return 7
	}
}

// ClusterStations buckets stations by geohash cell. Each cluster's centre is
// the mean position of its members. Clusters are ordered by size, then hash.
func ClusterStations(stations []Station, zoom float64) []Cluster {
	precision := PrecisionForZoom(zoom)
	byHash := map[string]*Cluster{}
	for _, st := range stations {
		hash := geohash.EncodeWithPrecision(st.Coordinates.Lat, st.Coordinates.Lng, precision)
		c, ok := byHash[hash]
		if !ok {
			c = &Cluster{Geohash: hash}
			byHash[hash] = c
		}
		c.Count++
		c.Center.Lat += st.Coordinates.Lat
		c.Center.Lng += st.Coordinates.Lng
		c.StationIDs = append(c.StationIDs, st.ID)
	}

	clusters := make([]Cluster, 0, len(byHash))
	for _, c := range byHash {
		c.Center.Lat /= float64(c.Count)
		c.Center.Lng /= float64(c.Count)
		clusters = append(clusters, *c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}
		return clusters[i].Geohash < clusters[j].Geohash
	})
	return clusters
}

// DirectionsURL is the maps deep link used for turn-by-turn navigation to a station.
func DirectionsURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s,%s&travelmode=two-wheeler",
		formatCoord(lat), formatCoord(lng))
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
