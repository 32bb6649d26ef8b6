// Package codec implements the versioned record protocol used by every
// persistable locus entity.
//
// # Frame Format
//
// A record is serialized as a frame:
//
//	[Version(4)][Length(4)][Payload(Length)]
//
// Fields:
//   - Version: 32-bit signed record version, big-endian, owned by the record type
//   - Length: 32-bit signed payload byte count, big-endian
//   - Payload: the record's own field serialization
//
// The length is written as a placeholder and backpatched once the payload is
// complete. Readers reject frames whose length is negative, larger than
// MaxRecordSize, or longer than the remaining input, before allocating.
//
// # Versioning
//
// A record reads its fields conditionally on the frame version. Newer writers
// append fields under a higher version; older readers never execute those
// branches and the unread tail of the payload is discarded by the frame length.
// Steps models the historical decode logic as an ordered list of upgrade steps.
//
// # Lists and Variants
//
// A list is framed as:
//
//	[Count(4)][Frame]...[Frame]
//
// Count zero is the canonical empty list. A tagged variant is a one-byte Kind
// followed by a frame; a Registry maps kinds to constructors and unknown kinds
// are skipped by length.
//
// # Usage
//
//	data, err := codec.Encode(loc)
//	if err != nil {
//	    return err
//	}
//
//	var out location.Location
//	if err := codec.Decode(data, &out); err != nil {
//	    return err // errors.Is(err, codec.ErrCorruptFrame)
//	}
//
// # Error Handling
//
// Malformed frames fail with a *FrameError naming the record type, matched by
// errors.Is(err, ErrCorruptFrame). List decoding skips siblings whose payload
// fails and reports them in a *ListError.
//
// # Thread Safety
//
// Encoding and decoding run on the caller's goroutine. Records are not safe for
// concurrent mutation; a record instance has one owner at a time. A Registry
// must not be modified once it is shared.
package codec
