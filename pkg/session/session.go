// Package session provides the anonymous shopper identity used to key guest
// carts: an opaque string minted once per install and persisted locally, then
// sent as X-Session-ID on every cart request.
package session

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Storage persists the identifier between runs. A failing Storage degrades
// the Provider to volatile identifiers instead of erroring.
type Storage interface {
	Load() (string, error)
	Save(id string) error
	Clear() error
}

// FileStorage keeps the identifier in a single plain-text file.
type FileStorage struct {
	Path string
}

// DefaultPath places the session file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}

	return filepath.Join(dir, "velomart", "cart-session"), nil
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{Path: path}
}

func (f *FileStorage) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

func (f *FileStorage) Save(id string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(f.Path, []byte(id), 0o600)
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Provider hands out the session identifier, creating and persisting one on
// first use. GetOrCreate is idempotent as long as storage works; when it
// does not, a fresh volatile identifier is returned on every call.
type Provider struct {
	mu      sync.Mutex
	storage Storage
	current string
}

func NewProvider(storage Storage) *Provider {
	return &Provider{storage: storage}
}

func (p *Provider) GetOrCreate() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != "" {
		return p.current
	}

	if p.storage != nil {
		if id, err := p.storage.Load(); err == nil && id != "" {
			p.current = id

			return id
		}
	}

	id := newID()

	if p.storage == nil {
		p.current = id

		return id
	}

	if err := p.storage.Save(id); err != nil {
		// Storage unavailable: hand out the id unpersisted, and mint a new
		// one next time rather than pretending it will survive.
		return id
	}

	p.current = id

	return id
}

// Clear forgets the identifier, ending the anonymous session. Called after a
// successful checkout or an explicit cart clear.
func (p *Provider) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = ""

	if p.storage == nil {
		return nil
	}

	return p.storage.Clear()
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// newID keeps the historical wire shape: unix millis plus a random
// alphanumeric suffix.
func newID() string {
	suffix := make([]byte, 9)

	random := make([]byte, 9)
	if _, err := rand.Read(random); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back to
		// the timestamp alone rather than panic over a cart id.
		return fmt.Sprintf("sess_%d", time.Now().UnixMilli())
	}

	for i, b := range random {
		suffix[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}

	return fmt.Sprintf("sess_%d_%s", time.Now().UnixMilli(), suffix)
}
