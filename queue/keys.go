package queue

import (
	"encoding/binary"
	"time"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

// Key prefixes for queue state
const (
	pendingPrefix = "jobp"
	leasedPrefix  = "jobl"
	failedPrefix  = "jobf"
	leaseIdxKey   = "jobi"
	jobSeqName    = "jobseq"
)

// makePendingKey generates a key for a pending job.
// Format: prefix:stage:seq, BigEndian so iteration order is FIFO.
func makePendingKey(stage core.Stage, seq uint64) []byte {
	prefix := pendingPrefix + ":"
	buf := make([]byte, len(prefix)+9)
	offset := copy(buf, []byte(prefix))
	buf[offset] = byte(stage)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeStagePrefix generates the common prefix for one stage's keys.
func makeStagePrefix(kind string, stage core.Stage) []byte {
	prefix := kind + ":"
	buf := make([]byte, len(prefix)+1)
	offset := copy(buf, []byte(prefix))
	buf[offset] = byte(stage)
	return buf
}

// makeLeasedKey generates a key for a leased job.
// Format: prefix:stage:deadline:seq, BigEndian so iteration order is
// by lease expiry; the earliest expiring lease always sorts first.
func makeLeasedKey(stage core.Stage, deadline time.Time, seq uint64) []byte {
	prefix := leasedPrefix + ":"
	buf := make([]byte, len(prefix)+17)
	offset := copy(buf, []byte(prefix))
	buf[offset] = byte(stage)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(deadline.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// parseLeasedKey extracts the deadline and sequence from a leased key.
func parseLeasedKey(key []byte) (deadline time.Time, seq uint64, ok bool) {
	prefixLen := len(leasedPrefix) + 2 // "jobl:" plus stage byte
	if len(key) != prefixLen+16 {
		return time.Time{}, 0, false
	}
	micros := int64(binary.BigEndian.Uint64(key[prefixLen:]))
	seq = binary.BigEndian.Uint64(key[prefixLen+8:])
	return time.UnixMicro(micros).UTC(), seq, true
}

// makeFailedKey generates a key in the failed registry.
// Job IDs are unique, so the ID doubles as the key suffix.
func makeFailedKey(stage core.Stage, jobID string) []byte {
	prefix := failedPrefix + ":"
	buf := make([]byte, len(prefix)+1+len(jobID))
	offset := copy(buf, []byte(prefix))
	buf[offset] = byte(stage)
	offset++
	copy(buf[offset:], []byte(jobID))
	return buf
}

// makeLeaseIdxKey generates the lease lookup key for a job ID.
func makeLeaseIdxKey(jobID string) []byte {
	return []byte(leaseIdxKey + ":" + jobID)
}
