package frontier

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"

	"github.com/webforge/crawlkit/internal/models"
)

const osAppendCreate = os.O_APPEND | os.O_CREATE | os.O_RDWR

// SpilloverQueue is the disk-backed overflow queue spec §4.6 allows
// when in-memory count exceeds cap ("abstract: an ordered durable
// queue; implementation free"). Decided here as a single append-only
// file shared by all priority tiers, replayed in FIFO order — see DESIGN.md's Open
// Question decision. Uses afero so tests can swap in an in-memory
// filesystem instead of touching disk.
type SpilloverQueue struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	file afero.File
}

func NewSpilloverQueue(fs afero.Fs, path string) (*SpilloverQueue, error) {
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	f, err := fs.OpenFile(path, osAppendCreate, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening spillover file %s: %w", path, err)
	}
	return &SpilloverQueue{fs: fs, path: path, file: f}, nil
}

// Push appends a request as one JSON line. Durability is whatever a
// single os.File append offers; no fsync, no crash-consistency beyond
// that.
func (s *SpilloverQueue) Push(req models.CrawlRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling spillover request: %w", err)
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing spillover entry: %w", err)
	}
	return nil
}

// LoadAll replays every spilled request in FIFO order (the order they
// were appended), then truncates the file. Intended for a clean
// restart or periodic drain back into the in-memory tiers.
func (s *SpilloverQueue) LoadAll() ([]models.CrawlRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening spillover file for replay: %w", err)
	}
	defer f.Close()

	var out []models.CrawlRequest
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		var req models.CrawlRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue // skip a corrupt line rather than fail the whole replay
		}
		out = append(out, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading spillover file: %w", err)
	}

	if err := s.file.Truncate(0); err != nil {
		return nil, fmt.Errorf("truncating spillover file after replay: %w", err)
	}
	if seeker, ok := s.file.(interface{ Seek(int64, int) (int64, error) }); ok {
		_, _ = seeker.Seek(0, 0)
	}

	return out, nil
}

// Close closes the underlying file handle.
func (s *SpilloverQueue) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
