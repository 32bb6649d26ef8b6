// Package location implements the geo-fix record: a small set of fixed
// fields plus a sparse map of optional attributes, persisted as a versioned
// frame.
//
// Every historical layout can be decoded. Writing always produces the current
// layout, so a decoded legacy record is migrated on its next write.
package location

import (
	"fmt"
	"math"

	"github.com/TomiHiltunen/geohash-golang"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/sparse"
	"github.com/ssargent/locus/pkg/stream"
)

// CurrentVersion is the layout every Location is written with
const CurrentVersion int32 = 5

// Location is one geo-fix. Coordinates are normalized on assignment: latitude
// is clamped to [-90, 90] and longitude wrapped into (-180, 180].
//
// Optional attributes live in a byte-keyed map that is nil while empty. The
// map holds at most 255 attributes; typed setters are no-ops once it is full
// of other keys, SetAttr reports sparse.ErrFull.
type Location struct {
	ID   int64
	Time int64 // unix milliseconds

	lat         float64
	lon         float64
	hasAltitude bool
	altitude    float64

	extra *sparse.Bytes
}

var _ codec.Storable = (*Location)(nil)

// New returns a location at the given coordinates
func New(lat, lon float64) *Location {
	l := &Location{}
	l.SetLatitude(lat)
	l.SetLongitude(lon)
	return l
}

// NormalizeLatitude clamps lat into [-90, 90]
func NormalizeLatitude(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

// NormalizeLongitude wraps lon into (-180, 180]
func NormalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon > 180 {
		lon -= 360
	} else if lon <= -180 {
		lon += 360
	}
	return lon
}

func (l *Location) Latitude() float64  { return l.lat }
func (l *Location) Longitude() float64 { return l.lon }

func (l *Location) SetLatitude(lat float64)  { l.lat = NormalizeLatitude(lat) }
func (l *Location) SetLongitude(lon float64) { l.lon = NormalizeLongitude(lon) }

// Altitude returns meters above the ellipsoid
func (l *Location) Altitude() (float64, bool) { return l.altitude, l.hasAltitude }

func (l *Location) SetAltitude(alt float64) {
	l.altitude = alt
	l.hasAltitude = true
}

func (l *Location) RemoveAltitude() {
	l.altitude = 0
	l.hasAltitude = false
}

// Version implements codec.Storable
func (l *Location) Version() int32 { return CurrentVersion }

// WriteObject implements codec.Storable
func (l *Location) WriteObject(w *stream.Writer) error {
	writeFixed(w, l)
	return sparse.WriteBytes(w, l.extra)
}

// ReadObject implements codec.Storable
func (l *Location) ReadObject(version int32, r *stream.Reader) error {
	*l = Location{}
	if err := decodeSteps.Apply(version, l, r); err != nil {
		return err
	}
	l.Remove(attrAltitudeRetired)
	return nil
}

func writeFixed(w *stream.Writer, l *Location) {
	w.WriteInt64(l.ID)
	w.WriteInt64(l.Time)
	w.WriteFloat64(l.lat)
	w.WriteFloat64(l.lon)
	w.WriteBool(l.hasAltitude)
	w.WriteFloat64(l.altitude)
}

// Has reports whether attr is set
func (l *Location) Has(attr Attr) bool {
	return l.extra.Has(byte(attr))
}

// Remove clears attr. Removing the last attribute drops the map entirely.
func (l *Location) Remove(attr Attr) bool {
	ok := l.extra.Remove(byte(attr))
	if l.extra.Len() == 0 {
		l.extra = nil
	}
	return ok
}

// Attr returns the raw bytes stored under attr
func (l *Location) Attr(attr Attr) ([]byte, bool) {
	return l.extra.Get(byte(attr))
}

// SetAttr stores raw bytes under attr
func (l *Location) SetAttr(attr Attr, raw []byte) error {
	if l.extra == nil {
		l.extra = sparse.New[[]byte](4)
	}
	err := l.extra.Put(byte(attr), raw)
	if l.extra.Len() == 0 {
		l.extra = nil
	}
	return err
}

// Attrs lists the set attributes in insertion order
func (l *Location) Attrs() []Attr {
	keys := l.extra.Keys()
	out := make([]Attr, len(keys))
	for i, k := range keys {
		out[i] = Attr(k)
	}
	return out
}

// AttrCount returns the number of set attributes
func (l *Location) AttrCount() int {
	return l.extra.Len()
}

func (l *Location) set(attr Attr, raw []byte) {
	_ = l.SetAttr(attr, raw)
}

func (l *Location) getString(attr Attr) (string, bool) {
	b, ok := l.Attr(attr)
	if !ok {
		return "", false
	}
	return string(b), true
}

func (l *Location) getInt(attr Attr) (int64, bool) {
	b, ok := l.Attr(attr)
	if !ok {
		return 0, false
	}
	return decodeInt(b)
}

func (l *Location) getFloat(attr Attr) (float64, bool) {
	b, ok := l.Attr(attr)
	if !ok {
		return 0, false
	}
	return decodeFloat(b)
}

func (l *Location) getFloat32(attr Attr) (float32, bool) {
	v, ok := l.getFloat(attr)
	return float32(v), ok
}

func (l *Location) getInt16(attr Attr) (int16, bool) {
	v, ok := l.getInt(attr)
	return clampInt16(v), ok
}

// Provider names the source of the fix, such as "gps" or "network"
func (l *Location) Provider() (string, bool) { return l.getString(AttrProvider) }
func (l *Location) SetProvider(p string)     { l.set(AttrProvider, []byte(p)) }

// Speed is meters per second over ground
func (l *Location) Speed() (float32, bool) { return l.getFloat32(AttrSpeed) }
func (l *Location) SetSpeed(v float32)     { l.set(AttrSpeed, encodeFloat32(v)) }

// Bearing is degrees clockwise from north in [0, 360)
func (l *Location) Bearing() (float32, bool) { return l.getFloat32(AttrBearing) }

func (l *Location) SetBearing(deg float32) {
	l.set(AttrBearing, encodeFloat32(float32(geodesic.NormalizeBearing(float64(deg)))))
}

func (l *Location) AccuracyHorizontal() (float32, bool) { return l.getFloat32(AttrAccuracyHorizontal) }
func (l *Location) SetAccuracyHorizontal(m float32) {
	l.set(AttrAccuracyHorizontal, encodeFloat32(m))
}

func (l *Location) AccuracyVertical() (float32, bool) { return l.getFloat32(AttrAccuracyVertical) }
func (l *Location) SetAccuracyVertical(m float32)     { l.set(AttrAccuracyVertical, encodeFloat32(m)) }

// OriginalLatitude is the latitude before any correction was applied
func (l *Location) OriginalLatitude() (float64, bool) { return l.getFloat(AttrOriginalLatitude) }
func (l *Location) SetOriginalLatitude(lat float64) {
	l.set(AttrOriginalLatitude, encodeFloat64(NormalizeLatitude(lat)))
}

func (l *Location) OriginalLongitude() (float64, bool) { return l.getFloat(AttrOriginalLongitude) }
func (l *Location) SetOriginalLongitude(lon float64) {
	l.set(AttrOriginalLongitude, encodeFloat64(NormalizeLongitude(lon)))
}

func (l *Location) HeartRate() (int16, bool) { return l.getInt16(AttrSensorHeartRate) }
func (l *Location) SetHeartRate(bpm int16)   { l.set(AttrSensorHeartRate, encodeInt16(bpm)) }

func (l *Location) Cadence() (int16, bool) { return l.getInt16(AttrSensorCadence) }
func (l *Location) SetCadence(rpm int16)   { l.set(AttrSensorCadence, encodeInt16(rpm)) }

func (l *Location) Power() (float32, bool) { return l.getFloat32(AttrSensorPower) }
func (l *Location) SetPower(watts float32) { l.set(AttrSensorPower, encodeFloat32(watts)) }

func (l *Location) Temperature() (float32, bool) { return l.getFloat32(AttrSensorTemperature) }
func (l *Location) SetTemperature(c float32)     { l.set(AttrSensorTemperature, encodeFloat32(c)) }

func (l *Location) Strides() (int32, bool) {
	v, ok := l.getInt(AttrSensorStrides)
	return clampInt32(v), ok
}
func (l *Location) SetStrides(n int32) { l.set(AttrSensorStrides, encodeInt32(n)) }

// SensorSpeed is the speed reported by an external sensor, in m/s
func (l *Location) SensorSpeed() (float32, bool) { return l.getFloat32(AttrSensorSpeed) }
func (l *Location) SetSensorSpeed(v float32)     { l.set(AttrSensorSpeed, encodeFloat32(v)) }

func (l *Location) Hdop() (float32, bool) { return l.getFloat32(AttrGnssHdop) }
func (l *Location) SetHdop(v float32)     { l.set(AttrGnssHdop, encodeFloat32(v)) }

func (l *Location) Vdop() (float32, bool) { return l.getFloat32(AttrGnssVdop) }
func (l *Location) SetVdop(v float32)     { l.set(AttrGnssVdop, encodeFloat32(v)) }

func (l *Location) Pdop() (float32, bool) { return l.getFloat32(AttrGnssPdop) }
func (l *Location) SetPdop(v float32)     { l.set(AttrGnssPdop, encodeFloat32(v)) }

func (l *Location) SatsUsed() (int16, bool) { return l.getInt16(AttrGnssSatsUsed) }
func (l *Location) SetSatsUsed(n int16)     { l.set(AttrGnssSatsUsed, encodeInt16(n)) }

func (l *Location) SatsVisible() (int16, bool) { return l.getInt16(AttrGnssSatsVisible) }
func (l *Location) SetSatsVisible(n int16)     { l.set(AttrGnssSatsVisible, encodeInt16(n)) }

// NtripMount is the correction stream mount point
func (l *Location) NtripMount() (string, bool) { return l.getString(AttrGnssNtripMount) }
func (l *Location) SetNtripMount(m string)     { l.set(AttrGnssNtripMount, []byte(m)) }

// ObsTimeStart and ObsTimeEnd bound the observation window in unix milliseconds
func (l *Location) ObsTimeStart() (int64, bool) { return l.getInt(AttrGnssObsTimeStart) }
func (l *Location) SetObsTimeStart(ms int64)    { l.set(AttrGnssObsTimeStart, encodeInt64(ms)) }

func (l *Location) ObsTimeEnd() (int64, bool) { return l.getInt(AttrGnssObsTimeEnd) }
func (l *Location) SetObsTimeEnd(ms int64)    { l.set(AttrGnssObsTimeEnd, encodeInt64(ms)) }

// DiffAge is the age of differential corrections in seconds
func (l *Location) DiffAge() (float32, bool) { return l.getFloat32(AttrGnssDiffAge) }
func (l *Location) SetDiffAge(s float32)     { l.set(AttrGnssDiffAge, encodeFloat32(s)) }

// GisMetadata is an opaque blob attached by GIS receivers
func (l *Location) GisMetadata() ([]byte, bool) { return l.Attr(AttrGnssGisMetadata) }
func (l *Location) SetGisMetadata(b []byte)     { l.set(AttrGnssGisMetadata, append([]byte(nil), b...)) }

// Geohash encodes the coordinates with the given precision in characters
func (l *Location) Geohash(precision int) string {
	return geohash.EncodeWithPrecision(l.lat, l.lon, precision)
}

// DistanceTo returns meters to other using s
func (l *Location) DistanceTo(other *Location, s *geodesic.Solver) float64 {
	return s.Distance(l.lat, l.lon, other.lat, other.lon)
}

// BearingTo returns the initial bearing to other in [0, 360)
func (l *Location) BearingTo(other *Location, s *geodesic.Solver) float64 {
	return geodesic.NormalizeBearing(s.Bearing(l.lat, l.lon, other.lat, other.lon))
}

// Clone returns a deep copy made through the codec
func (l *Location) Clone() (*Location, error) {
	out := &Location{}
	if err := codec.Copy(l, out); err != nil {
		return nil, fmt.Errorf("failed to clone location: %w", err)
	}
	return out, nil
}

// Equal reports whether both locations encode identically
func (l *Location) Equal(other *Location) bool {
	return codec.Equal(l, other)
}

func (l *Location) String() string {
	s := fmt.Sprintf("Location[id=%d, time=%d, lat=%.7f, lon=%.7f", l.ID, l.Time, l.lat, l.lon)
	if l.hasAltitude {
		s += fmt.Sprintf(", alt=%.2f", l.altitude)
	}
	for k, v := range l.extra.All() {
		s += fmt.Sprintf(", %s=%s", Attr(k), Attr(k).Format(v))
	}
	return s + "]"
}
