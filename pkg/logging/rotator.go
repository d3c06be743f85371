package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// SequentialRotator is an io.Writer that rolls the active file over to
// <name>.<n>.log once it would grow past maxSize, keeping at most maxBackups rolled files.
type SequentialRotator struct {
	filename   string
	maxSize    int64
	maxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

func NewSequentialRotator(filename string, maxSizeBytes int64, maxBackups int) *SequentialRotator {
	return &SequentialRotator{
		filename:   filename,
		maxSize:    maxSizeBytes,
		maxBackups: maxBackups,
	}
}

func (r *SequentialRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openFile(); err != nil {
			return 0, err
		}
	}

	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *SequentialRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}

func (r *SequentialRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *SequentialRotator) openFile() error {
	if err := os.MkdirAll(filepath.Dir(r.filename), 0755); err != nil {
		return err
	}

	r.size = 0
	if info, err := os.Stat(r.filename); err == nil {
		r.size = info.Size()
	}

	file, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	r.file = file
	return nil
}

func (r *SequentialRotator) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	r.file = nil

	rolled := r.rolledFiles()
	next := 1
	if len(rolled) > 0 {
		next = rolled[0].seq + 1
	}

	base := strings.TrimSuffix(r.filename, ".log")
	if err := os.Rename(r.filename, fmt.Sprintf("%s.%d.log", base, next)); err != nil {
		return err
	}

	r.prune()
	return r.openFile()
}

type rolledFile struct {
	path string
	seq  int
}

// rolledFiles returns rolled files ordered newest first.
func (r *SequentialRotator) rolledFiles() []rolledFile {
	base := strings.TrimSuffix(filepath.Base(r.filename), ".log")
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(r.filename), base+".*.log"))
	if err != nil {
		return nil
	}

	files := make([]rolledFile, 0, len(matches))
	for _, path := range matches {
		parts := strings.Split(filepath.Base(path), ".")
		if len(parts) < 3 {
			continue
		}
		seq, err := strconv.Atoi(parts[len(parts)-2])
		if err != nil {
			continue
		}
		files = append(files, rolledFile{path: path, seq: seq})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].seq > files[j].seq
	})
	return files
}

func (r *SequentialRotator) prune() {
	if r.maxBackups <= 0 {
		return
	}
	files := r.rolledFiles()
	for i := r.maxBackups; i < len(files); i++ {
		_ = os.Remove(files[i].path)
	}
}
