package domain

// Batch is an aggregate of records drained from one stream buffer.
// It maintains the invariant that Records and EncodedSizes have the same length.
type Batch struct {
	// Stream is the name of the stream the records belong to
	Stream string

	// Records contains the events in append order
	Records []Record

	// EncodedSizes stores the serialized length of each record for the size estimate
	EncodedSizes []int
}

// Size returns the number of records in the batch.
func (b Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b Batch) Empty() bool {
	return len(b.Records) == 0
}

// PayloadBytes returns the request cost of the batch as the service counts it:
// message bytes plus RecordOverhead per event.
func (b Batch) PayloadBytes() int {
	total := 0
	for _, r := range b.Records {
		total += len(r.Message) + RecordOverhead
	}
	return total
}

// Chunks splits the batch into consecutive pieces that each respect
// maxRecords and maxBytes. A single record larger than maxBytes is placed
// in a chunk of its own.
func (b Batch) Chunks(maxRecords, maxBytes int) []Batch {
	if b.Empty() {
		return nil
	}
	if maxRecords <= 0 {
		maxRecords = MaxPutRecords
	}
	if maxBytes <= 0 {
		maxBytes = MaxPutBytes
	}

	var chunks []Batch
	start, size := 0, 0
	for i, r := range b.Records {
		cost := len(r.Message) + RecordOverhead
		count := i - start
		if count > 0 && (count+1 > maxRecords || size+cost > maxBytes) {
			chunks = append(chunks, b.slice(start, i))
			start, size = i, 0
		}
		size += cost
	}
	return append(chunks, b.slice(start, len(b.Records)))
}

// Tail returns the records from index i onward as a new batch.
func (b Batch) Tail(i int) Batch {
	if i >= len(b.Records) {
		return Batch{Stream: b.Stream}
	}
	return b.slice(i, len(b.Records))
}

func (b Batch) slice(from, to int) Batch {
	out := Batch{
		Stream:  b.Stream,
		Records: b.Records[from:to:to],
	}
	if len(b.EncodedSizes) == len(b.Records) {
		out.EncodedSizes = b.EncodedSizes[from:to:to]
	}
	return out
}
