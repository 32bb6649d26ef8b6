package location

import (
	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/sparse"
	"github.com/ssargent/locus/pkg/stream"
)

// Payload layouts by version:
//
//	v0      id, provider, time, position, altitude, flat block
//	v1, v2  v0 plus sensor sub-record
//	v3      v1 plus short/int/float/double maps
//	v4      v3 plus long/string maps
//	v5      id, time, position, altitude, unified bytes map
//
// v2 changed no layout and decodes like v1.
var decodeSteps = codec.Steps[*Location]{
	{Name: "id", Since: 0, Read: readID},
	{Name: "provider", Since: 0, Until: 5, Read: readProvider},
	{Name: "fixed", Since: 0, Read: readFixed},
	{Name: "flat", Since: 0, Until: 5, Read: readFlat},
	{Name: "sensors", Since: 1, Until: 5, Read: readSensors},
	{Name: "typed maps", Since: 3, Until: 5, Read: readTypedMaps},
	{Name: "long and string maps", Since: 4, Until: 5, Read: readLongStringMaps},
	{Name: "unified map", Since: 5, Read: readUnified},
}

// DecodeSteps returns the names of the upgrade steps run for a version
func DecodeSteps(version int32) []string {
	return decodeSteps.Applied(version)
}

func readID(l *Location, r *stream.Reader) error {
	var err error
	l.ID, err = r.ReadInt64()
	return err
}

func readProvider(l *Location, r *stream.Reader) error {
	provider, err := r.ReadString()
	if err != nil {
		return err
	}
	if provider != "" {
		l.SetProvider(provider)
	}
	return nil
}

func readFixed(l *Location, r *stream.Reader) error {
	var err error
	if l.Time, err = r.ReadInt64(); err != nil {
		return err
	}
	lat, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	lon, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	l.SetLatitude(lat)
	l.SetLongitude(lon)

	if l.hasAltitude, err = r.ReadBool(); err != nil {
		return err
	}
	if l.altitude, err = r.ReadFloat64(); err != nil {
		return err
	}
	if !l.hasAltitude {
		l.altitude = 0
	}
	return nil
}

// readOptFloat32 reads a presence flag followed by a float32
func readOptFloat32(r *stream.Reader) (float32, bool, error) {
	ok, err := r.ReadBool()
	if err != nil {
		return 0, false, err
	}
	v, err := r.ReadFloat32()
	if err != nil {
		return 0, false, err
	}
	return v, ok, nil
}

func readOptInt32(r *stream.Reader) (int32, bool, error) {
	ok, err := r.ReadBool()
	if err != nil {
		return 0, false, err
	}
	v, err := r.ReadInt32()
	if err != nil {
		return 0, false, err
	}
	return v, ok, nil
}

func readFlat(l *Location, r *stream.Reader) error {
	acc, ok, err := readOptFloat32(r)
	if err != nil {
		return err
	}
	if ok {
		l.SetAccuracyHorizontal(acc)
	}

	bearing, ok, err := readOptFloat32(r)
	if err != nil {
		return err
	}
	if ok {
		l.SetBearing(bearing)
	}

	speed, ok, err := readOptFloat32(r)
	if err != nil {
		return err
	}
	if ok {
		l.SetSpeed(speed)
	}
	return nil
}

func readSensors(l *Location, r *stream.Reader) error {
	present, err := r.ReadBool()
	if err != nil || !present {
		return err
	}
	s := &legacySensors{}
	if err := codec.Read(r, s); err != nil {
		return err
	}
	s.migrate(l)
	return nil
}

func readTypedMaps(l *Location, r *stream.Reader) error {
	shorts, err := sparse.ReadShorts(r)
	if err != nil {
		return err
	}
	ints, err := sparse.ReadInts(r)
	if err != nil {
		return err
	}
	floats, err := sparse.ReadFloats(r)
	if err != nil {
		return err
	}
	doubles, err := sparse.ReadDoubles(r)
	if err != nil {
		return err
	}

	for k, v := range shorts.All() {
		l.set(Attr(k), encodeNumber(Attr(k), int64(v), 0, false, 2))
	}
	for k, v := range ints.All() {
		l.set(Attr(k), encodeNumber(Attr(k), int64(v), 0, false, 4))
	}
	for k, v := range floats.All() {
		l.set(Attr(k), encodeNumber(Attr(k), 0, float64(v), true, 4))
	}
	for k, v := range doubles.All() {
		l.set(Attr(k), encodeNumber(Attr(k), 0, v, true, 8))
	}
	return nil
}

func readLongStringMaps(l *Location, r *stream.Reader) error {
	longs, err := sparse.ReadLongs(r)
	if err != nil {
		return err
	}
	strs, err := sparse.ReadStrings(r)
	if err != nil {
		return err
	}

	for k, v := range longs.All() {
		l.set(Attr(k), encodeNumber(Attr(k), v, 0, false, 8))
	}
	for k, v := range strs.All() {
		l.set(Attr(k), []byte(v))
	}
	return nil
}

func readUnified(l *Location, r *stream.Reader) error {
	m, err := sparse.ReadBytes(r)
	if err != nil {
		return err
	}
	l.extra = m
	return nil
}

// legacySensors is the external sensor sub-record carried by v1 to v4
// locations. It is framed with its own version.
type legacySensors struct {
	version int32

	heartRate, cadence       int32
	hasHeartRate, hasCadence bool

	speed, temperature       float32
	hasSpeed, hasTemperature bool

	// since v1
	power      float32
	hasPower   bool
	strides    int32
	hasStrides bool
}

const legacySensorsVersion int32 = 1

func (s *legacySensors) Version() int32 {
	if s.version == 0 && (s.hasPower || s.hasStrides) {
		return legacySensorsVersion
	}
	return s.version
}

func (s *legacySensors) WriteObject(w *stream.Writer) error {
	writeOpt := func(ok bool, write func()) {
		w.WriteBool(ok)
		write()
	}
	writeOpt(s.hasHeartRate, func() { w.WriteInt32(s.heartRate) })
	writeOpt(s.hasCadence, func() { w.WriteInt32(s.cadence) })
	writeOpt(s.hasSpeed, func() { w.WriteFloat32(s.speed) })
	writeOpt(s.hasTemperature, func() { w.WriteFloat32(s.temperature) })
	if s.Version() >= 1 {
		writeOpt(s.hasPower, func() { w.WriteFloat32(s.power) })
		writeOpt(s.hasStrides, func() { w.WriteInt32(s.strides) })
	}
	return nil
}

var sensorSteps = codec.Steps[*legacySensors]{
	{Name: "sensors", Since: 0, Read: func(s *legacySensors, r *stream.Reader) error {
		var err error
		if s.heartRate, s.hasHeartRate, err = readOptInt32(r); err != nil {
			return err
		}
		if s.cadence, s.hasCadence, err = readOptInt32(r); err != nil {
			return err
		}
		if s.speed, s.hasSpeed, err = readOptFloat32(r); err != nil {
			return err
		}
		s.temperature, s.hasTemperature, err = readOptFloat32(r)
		return err
	}},
	{Name: "power and strides", Since: 1, Read: func(s *legacySensors, r *stream.Reader) error {
		var err error
		if s.power, s.hasPower, err = readOptFloat32(r); err != nil {
			return err
		}
		s.strides, s.hasStrides, err = readOptInt32(r)
		return err
	}},
}

func (s *legacySensors) ReadObject(version int32, r *stream.Reader) error {
	*s = legacySensors{version: version}
	return sensorSteps.Apply(version, s, r)
}

func (s *legacySensors) migrate(l *Location) {
	if s.hasHeartRate {
		l.SetHeartRate(clampInt16(int64(s.heartRate)))
	}
	if s.hasCadence {
		l.SetCadence(clampInt16(int64(s.cadence)))
	}
	if s.hasSpeed {
		l.SetSensorSpeed(s.speed)
	}
	if s.hasTemperature {
		l.SetTemperature(s.temperature)
	}
	if s.hasPower {
		l.SetPower(s.power)
	}
	if s.hasStrides {
		l.SetStrides(s.strides)
	}
}
