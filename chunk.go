package bundle

// Chunk is a contiguous range of points dispatched in one kernel invocation.
type Chunk struct {
	Offset int
	Size   int
}

// Chunks splits total points into ceil(total/size) chunks of at most size
// points; the last chunk holds the remainder. A size <= 0 yields one chunk.
func Chunks(total, size int) []Chunk {
	if total <= 0 {
		return nil
	}
	if size <= 0 || size > total {
		size = total
	}
	out := make([]Chunk, 0, (total+size-1)/size)
	for off := 0; off < total; off += size {
		out = append(out, Chunk{Offset: off, Size: min(size, total-off)})
	}
	return out
}

// ChunkSizes returns the sizes of Chunks(total, size).
func ChunkSizes(total, size int) []int {
	chunks := Chunks(total, size)
	sizes := make([]int, len(chunks))
	for i, c := range chunks {
		sizes[i] = c.Size
	}
	return sizes
}
