package session

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
)

// importerTable holds this compilation's registered importers/file-importers
// by id, plus the canonical-URL cache that satisfies the "at most one
// canonicalize call per URL" property: once an importer has canonicalized a
// URL, repeated requests for the same (importer, url) pair reuse the cached
// result instead of calling Canonicalize again. group collapses concurrent
// first-time requests for the same (importer, url) into a single call, so
// two callback goroutines racing on a cold cache entry still invoke
// Canonicalize only once.
type importerTable struct {
	mu      sync.Mutex
	entries map[uint32]importerEntry
	cache   map[cacheKey]string // "" value means "not found", distinguished by cached bool below
	cached  map[cacheKey]bool
	group   singleflight.Group
}

type cacheKey struct {
	importerID uint32
	url        string
}

func newImporterTable() *importerTable {
	return &importerTable{
		entries: make(map[uint32]importerEntry),
		cache:   make(map[cacheKey]string),
		cached:  make(map[cacheKey]bool),
	}
}

func (t *importerTable) register(id uint32, imp Importer, fileImp FileImporter) error {
	_, impIsFile := imp.(FileImporter)
	_, fileIsImp := fileImp.(Importer)
	if (imp != nil && fileImp != nil) || impIsFile || fileIsImp {
		return errs.NewHostError("importer %d provides both canonicalize/load and find_file_url; ambiguous", id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = importerEntry{id: id, importer: imp, fileImporter: fileImp}
	return nil
}

func (t *importerTable) get(id uint32) (importerEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return e, ok
}

// canonicalize resolves url via the importer with the given id, consulting
// and populating the dedup cache. Concurrent calls for the same (id, url)
// collapse onto a single underlying Canonicalize call via group.
func (t *importerTable) canonicalize(id uint32, url string, fromImport bool) (string, bool, error) {
	key := cacheKey{importerID: id, url: url}

	t.mu.Lock()
	if t.cached[key] {
		cached := t.cache[key]
		t.mu.Unlock()
		return cached, cached != "", nil
	}
	entry, ok := t.entries[id]
	t.mu.Unlock()
	if !ok || entry.importer == nil {
		return "", false, errs.NewHostError("no importer registered with id %d", id)
	}

	groupKey := fmt.Sprintf("%d\x00%s", id, url)
	v, err, _ := t.group.Do(groupKey, func() (any, error) {
		t.mu.Lock()
		if t.cached[key] {
			cached := t.cache[key]
			t.mu.Unlock()
			return cached, nil
		}
		t.mu.Unlock()

		canon, err := entry.importer.Canonicalize(url, fromImport)
		if err != nil {
			return "", err
		}

		t.mu.Lock()
		t.cache[key] = canon
		t.cached[key] = true
		t.mu.Unlock()
		return canon, nil
	})
	if err != nil {
		return "", false, err
	}
	canon := v.(string)
	return canon, canon != "", nil
}

func (t *importerTable) load(id uint32, canonicalURL string) (*ImportResult, error) {
	entry, ok := t.get(id)
	if !ok || entry.importer == nil {
		return nil, errs.NewHostError("no importer registered with id %d", id)
	}
	return entry.importer.Load(canonicalURL)
}

// findFileURL resolves url via the file-importer with the given id,
// enforcing the "must be a file: URL" rule at the boundary (property 10).
func (t *importerTable) findFileURL(id uint32, url string, fromImport bool) (string, error) {
	entry, ok := t.get(id)
	if !ok || entry.fileImporter == nil {
		return "", errs.NewHostError("no file importer registered with id %d", id)
	}
	fileURL, err := entry.fileImporter.FindFileURL(url, fromImport)
	if err != nil {
		return "", err
	}
	if fileURL == "" {
		return "", nil
	}
	if !strings.HasPrefix(fileURL, "file:") {
		return "", errs.NewHostError("find_file_url must return a file: URL, got %q", fileURL)
	}
	return fileURL, nil
}
