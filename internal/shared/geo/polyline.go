package geo

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// ErrMalformedPolyline is returned when an encoded polyline has a truncated
// chunk or a character outside the encoding alphabet.
var ErrMalformedPolyline = errors.New("malformed polyline")

const polylinePrecision = 1e5

// DecodePolyline decodes a Google encoded polyline into its points.
// An empty string decodes to an empty path.
func DecodePolyline(encoded string) ([]Point, error) {
	points := make([]Point, 0, len(encoded)/4)
	var lat, lng int64
	for i := 0; i < len(encoded); {
		dLat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next
		lat += dLat
		lng += dLng
		points = append(points, Point{
			Latitude:  float64(lat) / polylinePrecision,
			Longitude: float64(lng) / polylinePrecision,
		})
	}
	return points, nil
}

// EncodePolyline encodes points with 5 decimal digits of precision.
func EncodePolyline(points []Point) string {
	var sb strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Latitude * polylinePrecision))
		lng := int64(math.Round(p.Longitude * polylinePrecision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

// PolylineJSON decodes the polyline and serialises the points as a JSON array
// for map renderers.
func PolylineJSON(encoded string) (string, error) {
	points, err := DecodePolyline(encoded)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeValue(encoded string, i int) (int64, int, error) {
	var result int64
	var shift uint
	for {
		if i >= len(encoded) {
			return 0, i, ErrMalformedPolyline
		}
		b := int64(encoded[i]) - 63
		i++
		if b < 0 || b > 0x3f {
			return 0, i, ErrMalformedPolyline
		}
		if shift > 60 {
			return 0, i, ErrMalformedPolyline
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

func encodeValue(sb *strings.Builder, v int64) {
	v <<= 1
	if v < 0 {
		v = ^v
	}
	for v >= 0x20 {
		sb.WriteByte(byte((0x20 | (v & 0x1f)) + 63))
		v >>= 5
	}
	sb.WriteByte(byte(v + 63))
}
