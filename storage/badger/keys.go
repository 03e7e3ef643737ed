package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

// Key prefixes for different data types
const (
	itemPrefix        = "itmrec"
	itemScrapedPrefix = "itmrecd"
	statusPrefix      = "prcrec"
	statusIdxPrefix   = "prcrecs"
	summaryPrefix     = "sumrec"
	embeddingPrefix   = "embrec"
)

// makeItemKey generates a key for an item by ID.
func makeItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemPrefix, id))
}

// makeItemScrapedKey generates a composite key for the scraped-at index.
// Format: prefix:timestamp:id
func makeItemScrapedKey(timestamp time.Time, id core.ID) []byte {
	prefix := itemScrapedPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialItemScrapedKey generates a partial key for scraped-at range queries.
// Format: prefix:timestamp
func makePartialItemScrapedKey(timestamp time.Time) []byte {
	prefix := itemScrapedPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for timestamp
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeStatusKey generates a key for a processing record by item ID.
func makeStatusKey(itemID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", statusPrefix, itemID))
}

// makeStatusIdxKey generates a composite key for the status index.
// Format: prefix:status:itemID
func makeStatusIdxKey(status core.Status, itemID core.ID) []byte {
	prefix := statusIdxPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 9 // 1 byte for status + 8 bytes for itemID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	buf[offset] = byte(status)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(itemID))
	return buf
}

// makePartialStatusIdxKey generates a partial key for status queries.
// Format: prefix:status
func makePartialStatusIdxKey(status core.Status) []byte {
	prefix := statusIdxPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+1)
	offset := copy(buf, prefixBytes)
	buf[offset] = byte(status)
	return buf
}

// makeSummaryKey generates a key for a summary by item ID.
func makeSummaryKey(itemID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", summaryPrefix, itemID))
}

// makeEmbeddingKey generates a key for an embedding by item ID.
func makeEmbeddingKey(itemID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, itemID))
}
