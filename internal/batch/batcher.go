package batch

// Batch is an immutable, contiguous slice of the stream
type Batch struct {
	BatchIndex int
	// StreamStartIndex is inclusive, StreamEndIndex exclusive
	StreamStartIndex int
	StreamEndIndex   int
	Keywords         []string
	// StreamIndices[i] is the stream position of Keywords[i]
	StreamIndices []int
}

// Len returns the number of keywords in the batch
func (b Batch) Len() int {
	return len(b.Keywords)
}

// Make slices the stream into runs of size entries; the last batch may be
// shorter. Batch k covers [k*size, min((k+1)*size, len(stream))).
// size is validated by the configuration layer; values below 1 are treated as 1.
func Make(stream Stream, size int) []Batch {
	if size < 1 {
		size = 1
	}
	batches := make([]Batch, 0, (len(stream)+size-1)/size)
	for start := 0; start < len(stream); start += size {
		end := min(start+size, len(stream))

		b := Batch{
			BatchIndex:       start / size,
			StreamStartIndex: start,
			StreamEndIndex:   end,
			Keywords:         make([]string, 0, end-start),
			StreamIndices:    make([]int, 0, end-start),
		}
		for i := start; i < end; i++ {
			b.Keywords = append(b.Keywords, stream[i].Keyword)
			b.StreamIndices = append(b.StreamIndices, i)
		}
		batches = append(batches, b)
	}
	return batches
}
