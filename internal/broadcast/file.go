package broadcast

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tailsrv/tailsrv/internal/logging"
)

// openRetryInterval is how long to sleep between attempts to open the
// broadcast file before it exists.
const openRetryInterval = 3 * time.Second

// BroadcastFile is the single read-only handle shared by every client
// session for zero-copy sends, plus the length cell it feeds.
type BroadcastFile struct {
	path   string
	handle *os.File
	length *LengthCell
}

// Open blocks, polling every 3 seconds, until path exists and is a
// regular file, then returns a BroadcastFile with its length cell
// initialized from the file's current size. A non-regular path is a
// fatal, non-retryable error.
func Open(ctx context.Context, path string) (*BroadcastFile, error) {
	for {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			if os.IsNotExist(err) {
				logging.Infof("waiting for %s to be created", path)
				select {
				case <-time.After(openRetryInterval):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return nil, err
		}

		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if !info.Mode().IsRegular() {
			_ = f.Close()
			return nil, fmt.Errorf("%s: not a file", path)
		}

		length := uint64(info.Size())
		logging.Infof("opened %s (initial length %d bytes)", path, length)
		return &BroadcastFile{
			path:   path,
			handle: f,
			length: NewLengthCell(length),
		}, nil
	}
}

// Path returns the broadcast file's path as given at startup.
func (bf *BroadcastFile) Path() string {
	return bf.path
}

// Handle returns the read-only file handle shared by every session.
// Its own cursor is never used — every read passes an explicit offset.
func (bf *BroadcastFile) Handle() *os.File {
	return bf.handle
}

// Length returns the file-length cell.
func (bf *BroadcastFile) Length() *LengthCell {
	return bf.length
}

// Close releases the underlying file handle.
func (bf *BroadcastFile) Close() error {
	return bf.handle.Close()
}
