package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// ProgressWriter serializes command output and flushes buffered destinations after every write,
// so each "clean <package> <id>" line is visible before the next registry call starts.
type ProgressWriter struct {
	destination io.Writer
	mutex       sync.Mutex
}

// NewProgressWriter wraps destination. Wrapping a ProgressWriter again returns it unchanged.
func NewProgressWriter(destination io.Writer) io.Writer {
	switch typedDestination := destination.(type) {
	case nil:
		return nil
	case *ProgressWriter:
		return typedDestination
	default:
		return &ProgressWriter{destination: destination}
	}
}

func (progressWriter *ProgressWriter) Write(data []byte) (int, error) {
	progressWriter.mutex.Lock()
	defer progressWriter.mutex.Unlock()

	bytesWritten, writeError := progressWriter.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if bufferedDestination, buffered := progressWriter.destination.(flusher); buffered {
		return bytesWritten, bufferedDestination.Flush()
	}
	return bytesWritten, nil
}
