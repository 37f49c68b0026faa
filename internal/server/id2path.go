package server

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/nci/gomemcache/memcache"

	"github.com/DREAM-ODA-OS/eoxserver/internal/api"
	"github.com/DREAM-ODA-OS/eoxserver/internal/id2path"
)

// DefaultCacheTTL bounds how long a cached response may outlive the
// store change that invalidates it.
const DefaultCacheTTL = 5 * time.Minute

// maxRelativeExpiration is the largest expiration memcached reads as
// relative; larger values are taken as unix timestamps.
const maxRelativeExpiration = 30 * 24 * time.Hour

// Cache stores serialized id2path responses for at most ttl.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// MemcacheCache keeps responses in memcached.
type MemcacheCache struct {
	client *memcache.Client
}

// NewMemcacheCache connects lazily; errors surface as cache misses.
func NewMemcacheCache(uri string) *MemcacheCache {
	return &MemcacheCache{client: memcache.New(uri)}
}

func (c *MemcacheCache) Get(key string) ([]byte, bool) {
	item, err := c.client.Get(key)
	if err != nil {
		return nil, false
	}
	return item.Value, true
}

func (c *MemcacheCache) Set(key string, value []byte, ttl time.Duration) {
	// memcache may not retain the item anyway
	c.client.Set(&memcache.Item{Key: key, Value: value, Expiration: expirationSeconds(ttl)})
}

// expirationSeconds rounds ttl up to whole seconds. Zero means no expiry.
func expirationSeconds(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > maxRelativeExpiration {
		ttl = maxRelativeExpiration
	}
	return int32((ttl + time.Second - 1) / time.Second)
}

// AccessList restricts clients by address. Deny entries win over allow
// entries; an empty allow list admits every client not denied.
type AccessList struct {
	allow []netip.Prefix
	deny  []netip.Prefix
}

// ParseAccessList parses CIDR blocks or single addresses.
func ParseAccessList(allow, deny []string) (*AccessList, error) {
	var err error
	l := &AccessList{}
	if l.allow, err = parsePrefixes(allow); err != nil {
		return nil, err
	}
	if l.deny, err = parsePrefixes(deny); err != nil {
		return nil, err
	}
	return l, nil
}

func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			addr, err := netip.ParseAddr(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid address %q: %w", entry, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid network %q: %w", entry, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// Permits reports whether the remote address may use the service.
func (l *AccessList) Permits(remoteAddr string) bool {
	if l == nil {
		return true
	}
	addr, err := parseRemoteAddr(remoteAddr)
	if err != nil {
		return false
	}
	for _, p := range l.deny {
		if p.Contains(addr) {
			return false
		}
	}
	if len(l.allow) == 0 {
		return true
	}
	for _, p := range l.allow {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parseRemoteAddr accepts host:port as well as the bare address RealIP
// leaves behind.
func parseRemoteAddr(remoteAddr string) (netip.Addr, error) {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, err
	}
	return addr.Unmap(), nil
}

// Id2PathView answers path lookups for tracked objects.
type Id2PathView struct {
	manager *id2path.Manager
	access  *AccessList
	cache   Cache
	ttl     time.Duration
}

// NewId2PathView creates the view. access and cache may be nil; a
// non-positive ttl falls back to DefaultCacheTTL.
func NewId2PathView(manager *id2path.Manager, access *AccessList, cache Cache, ttl time.Duration) *Id2PathView {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Id2PathView{manager: manager, access: access, cache: cache, ttl: ttl}
}

type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%d %s", e.status, e.message)
}

func (v *Id2PathView) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := v.respond(r)
	if err != nil {
		var herr *httpError
		if !errors.As(err, &herr) {
			slog.Error("id2path lookup failed", "error", err)
			herr = &httpError{status: http.StatusInternalServerError, message: "Error: Internal server error!"}
		}
		writeText(w, herr.status, herr.message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (v *Id2PathView) respond(r *http.Request) ([]byte, error) {
	if r.Method != http.MethodGet {
		return nil, &httpError{http.StatusMethodNotAllowed,
			fmt.Sprintf("Error: Method not supported! METHOD='%s'", r.Method)}
	}
	if !v.access.Permits(r.RemoteAddr) {
		return nil, &httpError{http.StatusForbidden, "Forbidden!"}
	}

	var hash string
	if v.cache != nil {
		buff := md5.Sum([]byte(r.URL.RequestURI()))
		hash = hex.EncodeToString(buff[:])
		if cached, ok := v.cache.Get(hash); ok {
			return cached, nil
		}
	}

	inputs := map[string]string{}
	for key, values := range r.URL.Query() {
		key = strings.ToLower(key)
		if key != "id" && key != "filter" {
			return nil, &httpError{http.StatusBadRequest,
				fmt.Sprintf("Error: Bad request! Invalid key! KEY='%s'", key)}
		}
		if _, seen := inputs[key]; seen || len(values) > 1 {
			return nil, &httpError{http.StatusBadRequest,
				fmt.Sprintf("Error: Bad request! Repeated key! KEY='%s'", key)}
		}
		inputs[key] = values[0]
	}

	identifier, ok := inputs["id"]
	if !ok {
		return encodeIndented(api.Id2pathSignature{Service: "id2path", Version: "1.0"})
	}

	// an unknown identifier is reported before an invalid filter
	var types []id2path.PathType
	var filterErr error
	if filter, ok := inputs["filter"]; ok {
		types, filterErr = id2path.ParseFilter(filter)
	}

	paths, err := v.manager.Lookup(r.Context(), identifier, types)
	if errors.Is(err, id2path.ErrNotFound) {
		return nil, &httpError{http.StatusNotFound,
			fmt.Sprintf("Error: Record not found! Invalid identifier! IDENTIFIER='%s'", identifier)}
	}
	if err != nil {
		return nil, err
	}
	if filterErr != nil {
		return nil, &httpError{http.StatusBadRequest, "Error: Bad request! Invalid filter!"}
	}

	entries := make([]api.Id2pathEntry, len(paths))
	for i, item := range paths {
		entries[i] = api.Id2pathEntry{Url: "file://" + item.Path, Type: item.Type.String()}
	}
	body, err := encodeIndented(entries)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		v.cache.Set(hash, body, v.ttl)
	}
	return body, nil
}

// encodeIndented writes JSON with four space indentation; struct fields
// are declared in key order.
func encodeIndented(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeText writes the plain text error body "<status> <message>".
func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	fmt.Fprintf(w, "%d %s", status, message)
}
