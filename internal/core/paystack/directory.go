package paystack

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/metrics"
)

// DefaultCacheTTL is how long a fetched bank list is served without refetching.
const DefaultCacheTTL = 12 * time.Hour

// Bank is one entry of the provider's bank directory.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Snapshot is a cached copy of the bank directory.
type Snapshot struct {
	FetchedAt time.Time `json:"fetched_at"`
	Banks     []Bank    `json:"banks"`
}

// DirectoryCache holds at most one Snapshot. Save replaces it wholesale.
type DirectoryCache interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

// MemoryCache is a process-local DirectoryCache.
type MemoryCache struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Load(_ context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil, nil
	}
	snap := Snapshot{FetchedAt: m.snapshot.FetchedAt, Banks: slices.Clone(m.snapshot.Banks)}
	return &snap, nil
}

func (m *MemoryCache) Save(_ context.Context, snapshot Snapshot) error {
	snap := Snapshot{FetchedAt: snapshot.FetchedAt, Banks: slices.Clone(snapshot.Banks)}
	m.mu.Lock()
	m.snapshot = &snap
	m.mu.Unlock()
	return nil
}

// Directory lists banks through the provider, serving a cached copy while it
// is fresh.
type Directory struct {
	Client *Client
	Cache  DirectoryCache
	TTL    time.Duration
	Clock  func() time.Time
}

// ListBanks returns the cached directory when fresh, otherwise fetches it.
// A fresh cache is served even when no credential is configured.
func (d *Directory) ListBanks(ctx context.Context) ([]Bank, error) {
	if snap, fresh := d.Cached(ctx); fresh {
		metrics.RecordBankDirectoryCache("hit")
		return snap.Banks, nil
	}
	metrics.RecordBankDirectoryCache("miss")
	return d.Refresh(ctx)
}

// Cached returns the current snapshot, if any, and whether it is within the TTL.
func (d *Directory) Cached(ctx context.Context) (*Snapshot, bool) {
	if d == nil || d.Cache == nil {
		return nil, false
	}
	snap, err := d.Cache.Load(ctx)
	if err != nil {
		metrics.RecordBankDirectoryCache("error")
		return nil, false
	}
	if snap == nil {
		return nil, false
	}
	return snap, d.now().Sub(snap.FetchedAt) < d.ttl()
}

// Refresh fetches the directory from the provider and replaces the cache.
func (d *Directory) Refresh(ctx context.Context) ([]Bank, error) {
	if d == nil || !d.Client.HasCredential() {
		return nil, configurationError()
	}

	fetchedAt := d.now()
	resp, err := d.Client.get(ctx, "list_banks", "/bank", nil)
	if err != nil {
		return nil, serverError(MsgBanksServer, err)
	}
	if !resp.ok() {
		return nil, &ProxyError{
			Kind:    KindUpstream,
			Status:  resp.Status,
			Message: upstreamMessage(resp.Body, MsgBanksUpstream),
			Data:    resp.Body,
		}
	}

	banks := parseBanks(resp.Body)
	if d.Cache != nil {
		if err := d.Cache.Save(ctx, Snapshot{FetchedAt: fetchedAt, Banks: banks}); err != nil {
			metrics.RecordBankDirectoryCache("error")
		}
	}
	return banks, nil
}

// FindBank matches name against the directory. An unmatched name is a
// validation error carrying MsgBankNotSupported.
func (d *Directory) FindBank(ctx context.Context, name string) (Bank, error) {
	banks, err := d.ListBanks(ctx)
	if err != nil {
		return Bank{}, err
	}
	if bank, ok := MatchBank(banks, name); ok {
		return bank, nil
	}
	return Bank{}, &ProxyError{Kind: KindValidation, Status: http.StatusBadRequest, Message: MsgBankNotSupported}
}

// MatchBank finds the entry for a bank name picked from a fixed list, which
// rarely matches the provider's spelling. Names compare case-insensitively;
// an exact match wins, otherwise the first entry whose name contains name or
// is contained in it. Entries without a name or code never match.
func MatchBank(banks []Bank, name string) (Bank, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return Bank{}, false
	}

	partial := -1
	for i, b := range banks {
		candidate := strings.ToLower(strings.TrimSpace(b.Name))
		if candidate == "" || strings.TrimSpace(b.Code) == "" {
			continue
		}
		if candidate == query {
			return b, true
		}
		if partial < 0 && (strings.Contains(candidate, query) || strings.Contains(query, candidate)) {
			partial = i
		}
	}
	if partial < 0 {
		return Bank{}, false
	}
	return banks[partial], true
}

// parseBanks maps body.data to banks; a non-array data field yields no banks.
func parseBanks(body any) []Bank {
	banks := []Bank{}
	obj, ok := body.(map[string]any)
	if !ok {
		return banks
	}
	items, ok := obj["data"].([]any)
	if !ok {
		return banks
	}
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			entry = map[string]any{}
		}
		banks = append(banks, Bank{
			Name: stringField(entry, "name", "bank_name", "bank"),
			Code: stringField(entry, "code", "bank_code"),
		})
	}
	return banks
}

func (d *Directory) ttl() time.Duration {
	if d.TTL > 0 {
		return d.TTL
	}
	return DefaultCacheTTL
}

func (d *Directory) now() time.Time {
	if d != nil && d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
