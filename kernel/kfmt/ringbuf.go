package kfmt

import "io"

// ringBufferSize defines the size of the ring buffer that captures early
// Printf output. It must always be a power of 2.
const ringBufferSize = 2048

// ringBuffer models a fixed-size ring buffer. It captures the output of
// Printf calls made before a proper output sink becomes available so the
// data can be replayed once one is registered. When the buffer fills up the
// oldest data is overwritten.
type ringBuffer struct {
	data                  [ringBufferSize]byte
	readIndex, writeIndex int
}

// Write appends len(p) bytes from p to the ring buffer.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.data[rb.writeIndex] = b
		rb.writeIndex = (rb.writeIndex + 1) & (ringBufferSize - 1)
		if rb.readIndex == rb.writeIndex {
			rb.readIndex = (rb.readIndex + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read reads up to len(p) buffered bytes into p. It returns io.EOF once the
// buffer has been fully drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.readIndex == rb.writeIndex {
		return 0, io.EOF
	}

	// A wrapped buffer is drained up to its physical end first; the next
	// Read call picks up the remainder from the buffer start.
	end := rb.writeIndex
	if rb.readIndex > rb.writeIndex {
		end = ringBufferSize
	}

	n := copy(p, rb.data[rb.readIndex:end])
	rb.readIndex = (rb.readIndex + n) & (ringBufferSize - 1)

	return n, nil
}
