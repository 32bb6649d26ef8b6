// Package storage persists tracks in pebble and indexes their points by
// geohash for proximity lookups.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/locus/pkg/codec"
	"github.com/ssargent/locus/pkg/geodesic"
	"github.com/ssargent/locus/pkg/location"
	"github.com/ssargent/locus/pkg/logger"
	"github.com/ssargent/locus/pkg/track"
)

// ErrNotFound is returned when a track does not exist
var ErrNotFound = fmt.Errorf("track not found: %w", pebble.ErrNotFound)

const (
	trackPrefix = "t/"
	pointPrefix = "p/"

	// indexPrecision is the geohash length stored in point keys
	indexPrecision = 12
)

// Options configures a Repository
type Options struct {
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests
	FS vfs.FS
	// Sync makes every write durable before returning
	Sync   bool
	Solver *geodesic.Solver
	Logger logger.Logger
}

// Repository stores tracks and their geohash point index
type Repository struct {
	db     *pebble.DB
	wo     *pebble.WriteOptions
	solver *geodesic.Solver
	log    logger.Logger
}

// Open opens or creates a repository in dir
func Open(dir string, opts *Options) (*Repository, error) {
	if opts == nil {
		opts = &Options{}
	}
	po := &pebble.Options{}
	if opts.FS != nil {
		po.FS = opts.FS
	}

	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	r := &Repository{db: db, wo: pebble.NoSync, solver: opts.Solver, log: opts.Logger}
	if opts.Sync {
		r.wo = pebble.Sync
	}
	if r.solver == nil {
		r.solver = geodesic.NewSolver(geodesic.ModePrecise)
	}
	if r.log == nil {
		r.log = logger.NopLogger
	}
	return r, nil
}

// Close closes the underlying database
func (r *Repository) Close() error {
	return r.db.Close()
}

func trackKey(id ksuid.KSUID) []byte {
	return append([]byte(trackPrefix), id.Bytes()...)
}

func pointKey(gh string, id ksuid.KSUID, idx int) []byte {
	key := make([]byte, 0, len(pointPrefix)+len(gh)+1+len(id)+1+4)
	key = append(key, pointPrefix...)
	key = append(key, gh...)
	key = append(key, '/')
	key = append(key, id.Bytes()...)
	key = append(key, '/')
	return binary.BigEndian.AppendUint32(key, uint32(idx))
}

// parsePointKey extracts the track ID and point index from a point key
func parsePointKey(key []byte) (ksuid.KSUID, int, error) {
	const tail = 1 + 20 + 1 + 4
	if len(key) < len(pointPrefix)+tail {
		return ksuid.Nil, 0, fmt.Errorf("short point key %x", key)
	}
	rest := key[len(key)-tail:]
	id, err := ksuid.FromBytes(rest[1:21])
	if err != nil {
		return ksuid.Nil, 0, err
	}
	return id, int(binary.BigEndian.Uint32(rest[22:])), nil
}

// prefixUpperBound returns the smallest key greater than every key with prefix
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func indexPoints(b *pebble.Batch, t *track.Track, del bool) error {
	for i, p := range t.Points {
		key := pointKey(p.Geohash(indexPrecision), t.ID, i)
		if del {
			if err := b.Delete(key, nil); err != nil {
				return err
			}
			continue
		}
		data, err := codec.Encode(p)
		if err != nil {
			return err
		}
		if err := b.Set(key, data, nil); err != nil {
			return err
		}
	}
	return nil
}

// CreateTrack stores a new track, assigning an ID when it has none
func (r *Repository) CreateTrack(t *track.Track) (ksuid.KSUID, error) {
	if t.ID == ksuid.Nil {
		t.ID = ksuid.New()
	}
	if err := r.PutTrack(t); err != nil {
		return ksuid.Nil, err
	}
	return t.ID, nil
}

// PutTrack stores t, replacing any previous version and its index entries
func (r *Repository) PutTrack(t *track.Track) error {
	if t.ID == ksuid.Nil {
		return errors.New("track has no id")
	}
	data, err := codec.Encode(t)
	if err != nil {
		return fmt.Errorf("failed to encode track %s: %w", t.ID, err)
	}

	b := r.db.NewBatch()
	defer b.Close()

	old, err := r.GetTrack(t.ID)
	switch {
	case err == nil:
		if err := indexPoints(b, old, true); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if err := b.Set(trackKey(t.ID), data, nil); err != nil {
		return err
	}
	if err := indexPoints(b, t, false); err != nil {
		return fmt.Errorf("failed to index track %s: %w", t.ID, err)
	}
	if err := b.Commit(r.wo); err != nil {
		return fmt.Errorf("failed to commit track %s: %w", t.ID, err)
	}

	r.log.Debugf("stored track %s with %d points", t.ID, len(t.Points))
	return nil
}

// GetTrack loads a track by ID
func (r *Repository) GetTrack(id ksuid.KSUID) (*track.Track, error) {
	data, closer, err := r.db.Get(trackKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read track %s: %w", id, err)
	}
	defer closer.Close()

	t := &track.Track{}
	if err := codec.Decode(data, t); err != nil {
		return nil, fmt.Errorf("failed to decode track %s: %w", id, err)
	}
	if t.Dropped > 0 {
		r.log.Warnf("track %s: %d points could not be decoded", id, t.Dropped)
	}
	return t, nil
}

// AppendPoints adds points to an existing track
func (r *Repository) AppendPoints(id ksuid.KSUID, points ...*location.Location) (*track.Track, error) {
	t, err := r.GetTrack(id)
	if err != nil {
		return nil, err
	}
	t.Append(points...)
	if err := r.PutTrack(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTrack removes a track and its index entries in one batch
func (r *Repository) DeleteTrack(id ksuid.KSUID) error {
	t, err := r.GetTrack(id)
	if err != nil {
		return err
	}

	b := r.db.NewBatch()
	defer b.Close()
	if err := indexPoints(b, t, true); err != nil {
		return err
	}
	if err := b.Delete(trackKey(id), nil); err != nil {
		return err
	}
	if err := b.Commit(r.wo); err != nil {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	return nil
}

// ListTracks returns every stored track ordered by ID, which is creation order
func (r *Repository) ListTracks() ([]*track.Track, error) {
	prefix := []byte(trackPrefix)
	iter, err := r.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*track.Track
	for iter.First(); iter.Valid(); iter.Next() {
		t := &track.Track{}
		if err := codec.Decode(iter.Value(), t); err != nil {
			r.log.Warnf("skipping undecodable track at %x: %v", iter.Key(), err)
			continue
		}
		out = append(out, t)
	}
	return out, iter.Error()
}

// Hit is a stored point near a query coordinate
type Hit struct {
	TrackID  ksuid.KSUID
	Index    int
	Point    *location.Location
	Distance float64
}

// Near returns the points sharing the query's geohash cell at precision,
// nearest first
func (r *Repository) Near(lat, lon float64, precision int) ([]Hit, error) {
	if precision < 1 || precision > indexPrecision {
		return nil, fmt.Errorf("geohash precision %d out of range [1, %d]", precision, indexPrecision)
	}
	origin := location.New(lat, lon)
	prefix := append([]byte(pointPrefix), origin.Geohash(precision)...)

	iter, err := r.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var hits []Hit
	for iter.First(); iter.Valid(); iter.Next() {
		id, idx, err := parsePointKey(iter.Key())
		if err != nil {
			r.log.Warnf("skipping point key: %v", err)
			continue
		}
		p := &location.Location{}
		if err := codec.Decode(iter.Value(), p); err != nil {
			r.log.Warnf("skipping point %s/%d: %v", id, idx, err)
			continue
		}
		hits = append(hits, Hit{TrackID: id, Index: idx, Point: p, Distance: origin.DistanceTo(p, r.solver)})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits, nil
}
