package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"

	"github.com/goliatone/go-picker/pkg/record"
)

// DefaultKeyPrefix namespaces catalog hashes.
const DefaultKeyPrefix = "picker:catalog:"

// Redis stores each catalog as a hash: field = record id, value = the record
// encoded as JSON.
type Redis struct {
	client  rueidis.Client
	prefix  string
	catalog string
}

var _ Fetcher = (*Redis)(nil)

// NewRedis binds a rueidis client to one catalog hash.
func NewRedis(client rueidis.Client, prefix, catalog string) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog: redis client is required")
	}
	catalog = strings.TrimSpace(catalog)
	if catalog == "" {
		return nil, fmt.Errorf("catalog: redis catalog name is required")
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix, catalog: catalog}, nil
}

// Key returns the hash key backing the catalog.
func (r *Redis) Key() string {
	return r.prefix + r.catalog
}

// Fetch loads the whole hash and filters it like Static. Records are ordered
// by id so snapshots are deterministic.
func (r *Redis) Fetch(ctx context.Context, filter Filter) ([]record.Record, error) {
	cmd := r.client.B().Hgetall().Key(r.Key()).Build()
	entries, err := r.client.Do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("catalog: hgetall %s: %w", r.Key(), err)
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		dec := json.NewDecoder(strings.NewReader(entries[id]))
		dec.UseNumber()
		var rec any
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("catalog: decode record %q: %w", id, err)
		}
		records = append(records, rec)
	}
	return Match(records, filter), nil
}

// Put stores rec under id.
func (r *Redis) Put(ctx context.Context, id string, rec record.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("catalog: encode record %q: %w", id, err)
	}
	cmd := r.client.B().Hset().Key(r.Key()).FieldValue().FieldValue(id, string(data)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("catalog: hset %s: %w", r.Key(), err)
	}
	return nil
}

// Delete removes id from the catalog.
func (r *Redis) Delete(ctx context.Context, id string) error {
	cmd := r.client.B().Hdel().Key(r.Key()).Field(id).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("catalog: hdel %s: %w", r.Key(), err)
	}
	return nil
}
