package location

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Attr is the stable byte key of an optional location attribute
type Attr byte

// Attribute keys. Values are persisted; never renumber.
const (
	AttrProvider           Attr = 1
	AttrSpeed              Attr = 2
	AttrBearing            Attr = 3
	AttrAccuracyHorizontal Attr = 4
	AttrAccuracyVertical   Attr = 5
	// attrAltitudeRetired held the altitude before it became a fixed field.
	// It is dropped from every decoded record.
	attrAltitudeRetired Attr = 6

	AttrOriginalLatitude  Attr = 10
	AttrOriginalLongitude Attr = 11

	AttrSensorHeartRate   Attr = 20
	AttrSensorCadence     Attr = 21
	AttrSensorPower       Attr = 22
	AttrSensorTemperature Attr = 23
	AttrSensorStrides     Attr = 24
	AttrSensorSpeed       Attr = 25

	AttrGnssHdop         Attr = 30
	AttrGnssVdop         Attr = 31
	AttrGnssPdop         Attr = 32
	AttrGnssSatsUsed     Attr = 33
	AttrGnssSatsVisible  Attr = 34
	AttrGnssNtripMount   Attr = 35
	AttrGnssObsTimeStart Attr = 36
	AttrGnssObsTimeEnd   Attr = 37
	AttrGnssDiffAge      Attr = 38
	AttrGnssGisMetadata  Attr = 39
)

type valueKind int

const (
	kindBytes valueKind = iota
	kindString
	kindInt16
	kindInt32
	kindInt64
	kindFloat32
	kindFloat64
)

type attrInfo struct {
	name string
	kind valueKind
}

var attrs = map[Attr]attrInfo{
	AttrProvider:           {"provider", kindString},
	AttrSpeed:              {"speed", kindFloat32},
	AttrBearing:            {"bearing", kindFloat32},
	AttrAccuracyHorizontal: {"accuracy_hor", kindFloat32},
	AttrAccuracyVertical:   {"accuracy_ver", kindFloat32},
	attrAltitudeRetired:    {"altitude_retired", kindFloat64},
	AttrOriginalLatitude:   {"original_lat", kindFloat64},
	AttrOriginalLongitude:  {"original_lon", kindFloat64},
	AttrSensorHeartRate:    {"sensor_hr", kindInt16},
	AttrSensorCadence:      {"sensor_cadence", kindInt16},
	AttrSensorPower:        {"sensor_power", kindFloat32},
	AttrSensorTemperature:  {"sensor_temperature", kindFloat32},
	AttrSensorStrides:      {"sensor_strides", kindInt32},
	AttrSensorSpeed:        {"sensor_speed", kindFloat32},
	AttrGnssHdop:           {"gnss_hdop", kindFloat32},
	AttrGnssVdop:           {"gnss_vdop", kindFloat32},
	AttrGnssPdop:           {"gnss_pdop", kindFloat32},
	AttrGnssSatsUsed:       {"gnss_sats_used", kindInt16},
	AttrGnssSatsVisible:    {"gnss_sats_visible", kindInt16},
	AttrGnssNtripMount:     {"gnss_ntrip_mount", kindString},
	AttrGnssObsTimeStart:   {"gnss_obs_start", kindInt64},
	AttrGnssObsTimeEnd:     {"gnss_obs_end", kindInt64},
	AttrGnssDiffAge:        {"gnss_diff_age", kindFloat32},
	AttrGnssGisMetadata:    {"gnss_gis_metadata", kindBytes},
}

func (a Attr) String() string {
	if info, ok := attrs[a]; ok {
		return info.name
	}
	return fmt.Sprintf("attr_%d", byte(a))
}

// Format renders a raw attribute value for display
func (a Attr) Format(raw []byte) string {
	info, ok := attrs[a]
	if !ok {
		return fmt.Sprintf("%x", raw)
	}
	switch info.kind {
	case kindString:
		return string(raw)
	case kindInt16, kindInt32, kindInt64:
		if v, ok := decodeInt(raw); ok {
			return fmt.Sprintf("%d", v)
		}
	case kindFloat32, kindFloat64:
		if v, ok := decodeFloat(raw); ok {
			return fmt.Sprintf("%g", v)
		}
	}
	return fmt.Sprintf("%x", raw)
}

func encodeInt16(v int16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b
}

func encodeInt32(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

func encodeInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func encodeFloat32(v float32) []byte {
	return encodeInt32(int32(math.Float32bits(v)))
}

func encodeFloat64(v float64) []byte {
	return encodeInt64(int64(math.Float64bits(v)))
}

// decodeInt reads a 2, 4 or 8 byte big-endian signed integer
func decodeInt(b []byte) (int64, bool) {
	switch len(b) {
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b))), true
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b))), true
	case 8:
		return int64(binary.BigEndian.Uint64(b)), true
	}
	return 0, false
}

// decodeFloat reads a 4 or 8 byte big-endian IEEE 754 value
func decodeFloat(b []byte) (float64, bool) {
	switch len(b) {
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), true
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), true
	}
	return 0, false
}

func clampInt16(v int64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func clampInt32(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}

// encodeNumber converts a numeric value into the fixed width declared for
// attr. Attributes without a numeric declaration keep the value's own width.
func encodeNumber(attr Attr, i int64, f float64, isFloat bool, width int) []byte {
	kind := kindBytes
	if info, ok := attrs[attr]; ok {
		kind = info.kind
	}
	if isFloat {
		i = int64(f)
	} else {
		f = float64(i)
	}

	switch kind {
	case kindInt16:
		return encodeInt16(clampInt16(i))
	case kindInt32:
		return encodeInt32(clampInt32(i))
	case kindInt64:
		return encodeInt64(i)
	case kindFloat32:
		return encodeFloat32(float32(f))
	case kindFloat64:
		return encodeFloat64(f)
	}

	switch {
	case isFloat && width == 4:
		return encodeFloat32(float32(f))
	case isFloat:
		return encodeFloat64(f)
	case width == 2:
		return encodeInt16(int16(i))
	case width == 4:
		return encodeInt32(int32(i))
	default:
		return encodeInt64(i)
	}
}
