// Package polyline implements the encoded polyline format used by the
// directions service for route paths.
//
// Each coordinate is stored as the delta from the previous point, scaled
// by 1e5, zig-zag encoded and written as 5-bit groups offset by 63. Bit
// 0x20 of a group marks that another group follows.
package polyline

import (
	"fmt"
	"math"
	"strings"

	"pharmacy-route-service/internal/domain"
)

const (
	precision = 1e5

	asciiOffset  = 63
	chunkMask    = 0x1f
	continuation = 0x20

	// 32-bit values never need more than 7 groups.
	maxShift = 35
)

// DecodingError reports a malformed encoded path.
type DecodingError struct {
	Offset int
	Reason string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode polyline: offset %d: %s", e.Offset, e.Reason)
}

// Decode converts an encoded path into coordinates in degrees.
// The empty string decodes to an empty path.
func Decode(encoded string) ([]domain.LatLng, error) {
	points := make([]domain.LatLng, 0, len(encoded)/4)

	index := 0
	var lat, lng int64
	for index < len(encoded) {
		dlat, next, err := readValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, &DecodingError{Offset: next, Reason: "missing longitude after latitude"}
		}

		dlng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dlat
		lng += dlng
		points = append(points, domain.LatLng{
			Lat: float64(lat) / precision,
			Lng: float64(lng) / precision,
		})
	}

	return points, nil
}

// readValue reads one zig-zag encoded signed integer starting at index
// and returns it with the offset of the next unread byte.
func readValue(encoded string, index int) (int64, int, error) {
	var result int64
	shift := 0
	for {
		if index >= len(encoded) {
			return 0, index, &DecodingError{Offset: index, Reason: "unexpected end of input"}
		}

		b := int64(encoded[index]) - asciiOffset
		if b < 0 || b > 0x3f {
			return 0, index, &DecodingError{Offset: index, Reason: fmt.Sprintf("invalid character %q", encoded[index])}
		}
		index++

		result |= (b & chunkMask) << shift
		shift += 5
		if b < continuation {
			break
		}
		if shift > maxShift {
			return 0, index, &DecodingError{Offset: index, Reason: "value too long"}
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode is the inverse of Decode.
func Encode(points []domain.LatLng) string {
	var sb strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * precision))
		lng := int64(math.Round(p.Lng * precision))

		writeValue(&sb, lat-prevLat)
		writeValue(&sb, lng-prevLng)

		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

func writeValue(sb *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}

	for u >= continuation {
		sb.WriteByte(byte((continuation | (u & chunkMask)) + asciiOffset))
		u >>= 5
	}
	sb.WriteByte(byte(u + asciiOffset))
}
