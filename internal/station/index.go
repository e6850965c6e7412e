package station

import (
	"math"
	"sort"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/geo"

	"github.com/dhconnelly/rtreego"
)

const (
	pointTolerance = 0.0001
	kmPerDegreeLat = 111.32
)

type spatialStation struct {
	station Station
	point   rtreego.Point
}

func (s spatialStation) Bounds() rtreego.Rect {
	return s.point.ToRect(pointTolerance)
}

// Index answers radius queries over a fixed set of stations.
type Index struct {
	tree *rtreego.Rtree
	size int
}

func NewIndex(stations []Station) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	for _, st := range stations {
		tree.Insert(spatialStation{
			station: st,
			point:   rtreego.Point{st.Coordinates.Lat, st.Coordinates.Lng},
		})
	}
	return &Index{tree: tree, size: len(stations)}
}

func (i *Index) Len() int {
	return i.size
}

// Within returns stations within radiusKm of the point, nearest first, with
// DistanceKm filled in. The rtree search box is widened by latitude so the
// haversine pass never misses a candidate.
func (i *Index) Within(lat, lng, radiusKm float64) []Station {
	if radiusKm <= 0 {
		return []Station{}
	}
	latDeg := radiusKm / kmPerDegreeLat
	lngDeg := latDeg
	if c := math.Cos(lat * math.Pi / 180); c > 0.01 {
		lngDeg = radiusKm / (kmPerDegreeLat * c)
	}
	box, err := rtreego.NewRect(rtreego.Point{lat - latDeg, lng - lngDeg}, []float64{2 * latDeg, 2 * lngDeg})
	if err != nil {
		return []Station{}
	}

	results := []Station{}
	for _, hit := range i.tree.SearchIntersect(box) {
		st := hit.(spatialStation).station
		d := geo.HaversineKm(lat, lng, st.Coordinates.Lat, st.Coordinates.Lng)
		if d > radiusKm {
			continue
		}
		st.DistanceKm = d
		results = append(results, st)
	}
	sort.Slice(results, func(a, b int) bool {
		return results[a].DistanceKm < results[b].DistanceKm
	})
	return results
}
