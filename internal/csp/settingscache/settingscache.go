// Package settingscache caches the PartySettings a server negotiated with
// a given client, so a reconnecting client on a different pod doesn't have
// to renegotiate. Grounded on the teacher's redis-backed hub store
// (internal/fabric/redis_store.go), which defines a narrow RedisClient
// interface so the domain code never imports a concrete driver, and JSON
// encodes its cached value type before handing it to Set/Get.
package settingscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	csp "github.com/ocx/csp/internal/csp/context"
	"github.com/ocx/csp/internal/csp/settings"
)

// RedisClient is the slice of a redis client this cache needs. Satisfied
// by *redis.Client from github.com/redis/go-redis/v9 via a thin adapter
// built at process wiring time, keeping this package driver-agnostic.
type RedisClient interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
}

// Cache persists negotiated PartySettings per client id in Redis.
type Cache struct {
	client    RedisClient
	keyPrefix string
	ttl       time.Duration
}

// New returns a Cache. An empty keyPrefix defaults to "csp:settings:"; a
// zero ttl defaults to one hour.
func New(client RedisClient, keyPrefix string, ttl time.Duration) *Cache {
	if keyPrefix == "" {
		keyPrefix = "csp:settings:"
	}
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Cache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

type cachedSettings struct {
	SupportedProtocolVersions []uint16                   `json:"supported_protocol_versions"`
	MandatoryCommonFlags      uint32                      `json:"mandatory_common_flags"`
	ForbiddenCommonFlags      uint32                      `json:"forbidden_common_flags"`
	Interfaces                []cachedInterfaceSupport    `json:"interfaces"`
}

type cachedInterfaceSupport struct {
	StructID [16]byte `json:"struct_id"`
	Version  uint32   `json:"version"`
}

func toCached(s settings.PartySettings) cachedSettings {
	ifaces := make([]cachedInterfaceSupport, len(s.Interfaces))
	for i, iface := range s.Interfaces {
		ifaces[i] = cachedInterfaceSupport{StructID: iface.ID, Version: iface.Version}
	}
	return cachedSettings{
		SupportedProtocolVersions: s.SupportedProtocolVersions,
		MandatoryCommonFlags:      uint32(s.MandatoryCommonFlags),
		ForbiddenCommonFlags:      uint32(s.ForbiddenCommonFlags),
		Interfaces:                ifaces,
	}
}

func (c cachedSettings) toSettings() settings.PartySettings {
	ifaces := make([]settings.InterfaceSupport, len(c.Interfaces))
	for i, iface := range c.Interfaces {
		ifaces[i] = settings.InterfaceSupport{ID: iface.StructID, Version: iface.Version}
	}
	return settings.PartySettings{
		SupportedProtocolVersions: c.SupportedProtocolVersions,
		MandatoryCommonFlags:      csp.CommonFlags(c.MandatoryCommonFlags),
		ForbiddenCommonFlags:      csp.CommonFlags(c.ForbiddenCommonFlags),
		Interfaces:                ifaces,
	}
}

// Save stores settings for clientID, overwriting any prior entry.
func (c *Cache) Save(ctx context.Context, clientID string, s settings.PartySettings) error {
	data, err := json.Marshal(toCached(s))
	if err != nil {
		return fmt.Errorf("marshal party settings: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+clientID, data, c.ttl); err != nil {
		return fmt.Errorf("redis SET party settings: %w", err)
	}
	return nil
}

// Load retrieves the settings cached for clientID. found is false on a
// cache miss without that being an error.
func (c *Cache) Load(ctx context.Context, clientID string) (s settings.PartySettings, found bool, err error) {
	data, err := c.client.Get(ctx, c.keyPrefix+clientID)
	if err != nil {
		return settings.PartySettings{}, false, err
	}
	if data == nil {
		return settings.PartySettings{}, false, nil
	}
	var cached cachedSettings
	if err := json.Unmarshal(data, &cached); err != nil {
		return settings.PartySettings{}, false, fmt.Errorf("unmarshal party settings: %w", err)
	}
	return cached.toSettings(), true, nil
}

// Forget removes any cached settings for clientID, e.g. on disconnect.
func (c *Cache) Forget(ctx context.Context, clientID string) error {
	return c.client.Del(ctx, c.keyPrefix+clientID)
}
