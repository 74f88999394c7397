// Package history keeps the lines entered at the prompt.
package history

import (
	"bufio"
	"os"
	"sync"

	"github.com/spf13/afero"
)

type History struct {
	items    []string
	file     string
	maxItems int
	fs       afero.Fs
	mu       sync.Mutex
}

// New loads the history stored in file. An empty file name keeps the history
// in memory only.
func New(fs afero.Fs, file string, maxItems int) (*History, error) {
	h := &History{
		file:     file,
		maxItems: maxItems,
		fs:       fs,
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Add appends an item and writes the history back to its file.
func (h *History) Add(item string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, item)
	h.trim()
	return h.save()
}

func (h *History) GetAll() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string{}, h.items...)
}

func (h *History) trim() {
	if len(h.items) > h.maxItems {
		h.items = h.items[len(h.items)-h.maxItems:]
	}
}

func (h *History) load() error {
	if h.file == "" {
		return nil
	}
	file, err := h.fs.Open(h.file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		h.items = append(h.items, scanner.Text())
	}
	h.trim()
	return scanner.Err()
}

func (h *History) save() error {
	if h.file == "" {
		return nil
	}
	file, err := h.fs.Create(h.file)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range h.items {
		if _, err := writer.WriteString(item + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
