package tlog

import (
	"bytes"

	"github.com/droplab/tidal/schema"
)

/*
Common definitions for the tidal log format. A log file is a flat sequence of
marker-tagged records:

    Metadata: 0xA5, u32 stream id, name (null-terminated), u8 class,
              class-specific layout fields
    Labels:   0x66, u32 stream id, one null-terminated string per layout label
    Data:     0xDB, u32 stream id, u64 timestamp, one sample payload

There is no file header or trailer; a log ends at the last complete record.
All multi-byte integers are little-endian. The upstream C++ writer emits
native byte order, which in practice has only ever meant little-endian; we
commit to it so files decode identically everywhere.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	markerMetadata = 0xA5
	markerLabels   = 0x66
	markerData     = 0xDB
)

// timestampSize is the wire size of a data record timestamp (u64).
const timestampSize = 8

// stream is the per-stream decode state: the declared layout plus the two
// accumulation buffers. Timestamps and payloads are buffered raw during the
// parse and only interpreted at finalization.
type stream struct {
	id     uint32
	name   string
	layout schema.Layout
	labels []string
	times  bytes.Buffer
	data   bytes.Buffer
}
