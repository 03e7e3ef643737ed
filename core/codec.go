package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types. Values are stored in
// BadgerDB as MUS-encoded bytes; keeping the codecs next to the models keeps
// field order changes and codec changes in one review.

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) int {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// marshalTime encodes a time.Time as unix seconds + nanoseconds.
func marshalTime(t time.Time, bs []byte) (n int) {
	n = varint.Int64.Marshal(t.Unix(), bs)
	n += varint.Int64.Marshal(int64(t.Nanosecond()), bs[n:])
	return
}

func unmarshalTime(bs []byte) (t time.Time, n int, err error) {
	sec, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	nsec, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return time.Unix(sec, nsec).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.Unix()) + varint.Int64.Size(int64(t.Nanosecond()))
}

func marshalStrings(vs []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vs), bs)
	for _, v := range vs {
		n += ord.String.Marshal(v, bs[n:])
	}
	return
}

func unmarshalStrings(bs []byte) (vs []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length == 0 {
		return nil, n, nil
	}
	// Every element needs at least one byte, so a length beyond the
	// remaining input is corruption, not a large list.
	if length < 0 || length > len(bs)-n {
		return nil, n, ErrCorruptListLength
	}
	vs = make([]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		vs[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func sizeStrings(vs []string) (size int) {
	size = varint.Int.Size(len(vs))
	for _, v := range vs {
		size += ord.String.Size(v)
	}
	return
}

func marshalVector(vec []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(vec), bs)
	for _, f := range vec {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func unmarshalVector(bs []byte) (vec []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length == 0 {
		return nil, n, nil
	}
	// Four bytes per element; anything past the remaining input is corrupt.
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, ErrCorruptListLength
	}
	vec = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		vec[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func sizeVector(vec []float32) (size int) {
	size = varint.Int.Size(len(vec))
	for _, f := range vec {
		size += raw.Float32.Size(f)
	}
	return
}

// ItemMUS serializes Items.
var ItemMUS = itemMUS{}

type itemMUS struct{}

func (itemMUS) Marshal(v Item, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.VideoID, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += ord.String.Marshal(v.FullContent, bs[n:])
	n += ord.String.Marshal(v.ExtractionMethod, bs[n:])
	n += marshalTime(v.PublishedAt, bs[n:])
	n += marshalTime(v.ScrapedAt, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return
}

func (itemMUS) Unmarshal(bs []byte) (v Item, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	for _, field := range []*string{
		&v.Title, &v.URL, &v.VideoID, &v.Description, &v.FullContent, &v.ExtractionMethod,
	} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for _, field := range []*time.Time{
		&v.PublishedAt, &v.ScrapedAt, &v.InsertedAt, &v.UpdatedAt,
	} {
		*field, n1, err = unmarshalTime(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (itemMUS) Size(v Item) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.VideoID)
	size += ord.String.Size(v.Description)
	size += ord.String.Size(v.FullContent)
	size += ord.String.Size(v.ExtractionMethod)
	size += sizeTime(v.PublishedAt)
	size += sizeTime(v.ScrapedAt)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return
}

// ProcessingRecordMUS serializes ProcessingRecords.
var ProcessingRecordMUS = processingRecordMUS{}

type processingRecordMUS struct{}

func (processingRecordMUS) Marshal(v ProcessingRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ItemId, bs)
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += varint.Int.Marshal(int(v.CurrentStage), bs[n:])
	n += varint.Int.Marshal(v.RetryCount, bs[n:])
	n += ord.String.Marshal(v.ErrorMessage, bs[n:])
	n += marshalTime(v.StartedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return
}

func (processingRecordMUS) Unmarshal(bs []byte) (v ProcessingRecord, n int, err error) {
	var n1 int
	v.ItemId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var status, stage int
	status, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status = Status(status)
	stage, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CurrentStage = Stage(stage)
	v.RetryCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ErrorMessage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StartedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (processingRecordMUS) Size(v ProcessingRecord) (size int) {
	size = IDMUS.Size(v.ItemId)
	size += varint.Int.Size(int(v.Status))
	size += varint.Int.Size(int(v.CurrentStage))
	size += varint.Int.Size(v.RetryCount)
	size += ord.String.Size(v.ErrorMessage)
	size += sizeTime(v.StartedAt)
	size += sizeTime(v.UpdatedAt)
	return
}

// SummaryMUS serializes Summaries.
var SummaryMUS = summaryMUS{}

type summaryMUS struct{}

func (summaryMUS) Marshal(v Summary, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ItemId, bs)
	n += ord.String.Marshal(v.Summary, bs[n:])
	n += marshalStrings(v.KeyPoints, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return
}

func (summaryMUS) Unmarshal(bs []byte) (v Summary, n int, err error) {
	var n1 int
	v.ItemId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Summary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.KeyPoints, n1, err = unmarshalStrings(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (summaryMUS) Size(v Summary) (size int) {
	size = IDMUS.Size(v.ItemId)
	size += ord.String.Size(v.Summary)
	size += sizeStrings(v.KeyPoints)
	size += ord.String.Size(v.Model)
	size += sizeTime(v.InsertedAt)
	return
}

// EmbeddingMUS serializes Embeddings.
var EmbeddingMUS = embeddingMUS{}

type embeddingMUS struct{}

func (embeddingMUS) Marshal(v Embedding, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ItemId, bs)
	n += marshalVector(v.Vector, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	return
}

func (embeddingMUS) Unmarshal(bs []byte) (v Embedding, n int, err error) {
	var n1 int
	v.ItemId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (embeddingMUS) Size(v Embedding) (size int) {
	size = IDMUS.Size(v.ItemId)
	size += sizeVector(v.Vector)
	size += ord.String.Size(v.Model)
	size += sizeTime(v.InsertedAt)
	return
}

// JobMUS serializes queued Jobs.
var JobMUS = jobMUS{}

type jobMUS struct{}

func (jobMUS) Marshal(v Job, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += varint.Int.Marshal(int(v.Stage), bs[n:])
	n += IDMUS.Marshal(v.ItemId, bs[n:])
	n += varint.Int64.Marshal(int64(v.Timeout), bs[n:])
	n += marshalTime(v.EnqueuedAt, bs[n:])
	return
}

func (jobMUS) Unmarshal(bs []byte) (v Job, n int, err error) {
	var n1 int
	v.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var stage int
	stage, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Stage = Stage(stage)
	v.ItemId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var timeout int64
	timeout, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timeout = time.Duration(timeout)
	v.EnqueuedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (jobMUS) Size(v Job) (size int) {
	size = ord.String.Size(v.Id)
	size += varint.Int.Size(int(v.Stage))
	size += IDMUS.Size(v.ItemId)
	size += varint.Int64.Size(int64(v.Timeout))
	size += sizeTime(v.EnqueuedAt)
	return
}
