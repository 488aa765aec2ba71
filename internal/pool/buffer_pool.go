package pool

import "sync"

// BufferPool implements a pool of byte slices for efficient memory reuse
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with buffers of the specified size
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, 0, size)
				return &buffer
			},
		},
		size: size,
	}
}

// Size reports the initial capacity of pooled buffers.
func (bp *BufferPool) Size() int {
	return bp.size
}

// Get retrieves a buffer from the pool or creates a new one if none are available
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool for reuse
func (bp *BufferPool) Put(buffer *[]byte) {
	// Reset buffer length but keep capacity
	*buffer = (*buffer)[:0]
	bp.pool.Put(buffer)
}

// StringBuilderPool implements a pool of strings.Builder for efficient string building
type StringBuilderPool struct {
	pool sync.Pool
}

// NewStringBuilderPool creates a new strings.Builder pool
func NewStringBuilderPool() *StringBuilderPool {
	return &StringBuilderPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(StringBuilder)
			},
		},
	}
}

// Get retrieves a StringBuilder from the pool or creates a new one if none are available
func (sbp *StringBuilderPool) Get() *StringBuilder {
	return sbp.pool.Get().(*StringBuilder)
}

// Put returns a StringBuilder to the pool for reuse
func (sbp *StringBuilderPool) Put(sb *StringBuilder) {
	sb.Reset()
	sbp.pool.Put(sb)
}

// StringBuilder is a reusable byte buffer that tracks the last byte written
// so callers can collapse separator runs without re-reading it. Reset keeps
// the backing array, so a pooled builder stops allocating once it has grown
// to the longest input seen.
type StringBuilder struct {
	buf []byte
}

// WriteByte appends one byte.
func (sb *StringBuilder) WriteByte(b byte) error {
	sb.buf = append(sb.buf, b)
	return nil
}

// WriteString writes a string to the builder
func (sb *StringBuilder) WriteString(s string) {
	sb.buf = append(sb.buf, s...)
}

// Last returns the most recently written byte, or 0 when empty.
func (sb *StringBuilder) Last() byte {
	if len(sb.buf) == 0 {
		return 0
	}
	return sb.buf[len(sb.buf)-1]
}

// Len returns the number of accumulated bytes.
func (sb *StringBuilder) Len() int {
	return len(sb.buf)
}

// Cap returns the capacity of the backing array.
func (sb *StringBuilder) Cap() int {
	return cap(sb.buf)
}

// Grow reserves room for n more bytes.
func (sb *StringBuilder) Grow(n int) {
	if cap(sb.buf)-len(sb.buf) < n {
		buf := make([]byte, len(sb.buf), 2*cap(sb.buf)+n)
		copy(buf, sb.buf)
		sb.buf = buf
	}
}

// String returns a copy of the accumulated bytes. The result stays valid
// after the builder is reset and reused.
func (sb *StringBuilder) String() string {
	return string(sb.buf)
}

// Reset empties the builder and keeps its capacity.
func (sb *StringBuilder) Reset() {
	sb.buf = sb.buf[:0]
}
