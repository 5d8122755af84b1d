package settings

import (
	"cmp"
	"context"
	stderrors "errors"
	"slices"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/vinayprograms/recents/errors"
)

// NATSStore implements Store on a JetStream key-value bucket.
type NATSStore struct {
	kv     jetstream.KeyValue
	config NATSStoreConfig
	closed atomic.Bool
}

// NATSStoreConfig holds NATS KV store configuration.
type NATSStoreConfig struct {
	// Conn is the NATS connection to use.
	Conn *nats.Conn

	// Bucket is the KV bucket name.
	Bucket string

	// History is the number of revisions to keep per key.
	// Default: 1
	History int

	// MaxValueSize is the maximum value size in bytes.
	// Default: 64KiB
	MaxValueSize int32
}

// DefaultNATSStoreConfig returns configuration with sensible defaults.
func DefaultNATSStoreConfig() NATSStoreConfig {
	return NATSStoreConfig{
		Bucket:       "recents-settings",
		History:      1,
		MaxValueSize: 64 * 1024,
	}
}

// NewNATSStore binds to the bucket, creating it when needed.
func NewNATSStore(ctx context.Context, cfg NATSStoreConfig) (*NATSStore, error) {
	if cfg.Conn == nil {
		return nil, errors.InvalidInput("nats connection required")
	}
	def := DefaultNATSStoreConfig()
	if cfg.Bucket == "" {
		cfg.Bucket = def.Bucket
	}
	if cfg.History <= 0 {
		cfg.History = def.History
	}
	if cfg.MaxValueSize <= 0 {
		cfg.MaxValueSize = def.MaxValueSize
	}

	js, err := jetstream.New(cfg.Conn)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "jetstream")
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       cfg.Bucket,
		History:      uint8(cfg.History),
		MaxValueSize: cfg.MaxValueSize,
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "create kv bucket",
			errors.WithMetadata("bucket", cfg.Bucket))
	}

	return &NATSStore{kv: kv, config: cfg}, nil
}

// Get returns the entry for key.
func (s *NATSStore) Get(ctx context.Context, key string) (Entry, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, err
	}
	if s.closed.Load() {
		return Entry{}, errClosed()
	}

	e, err := s.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return Entry{}, errNotFound(key)
		}
		return Entry{}, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "kv get")
	}
	return entryFromNATS(e), nil
}

// Put stores value under key.
func (s *NATSStore) Put(ctx context.Context, key, value string) (uint64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	if s.closed.Load() {
		return 0, errClosed()
	}

	rev, err := s.kv.PutString(ctx, key, value)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "kv put")
	}
	return rev, nil
}

// Delete removes key.
func (s *NATSStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return errClosed()
	}

	err := s.kv.Delete(ctx, key)
	if err != nil && !stderrors.Is(err, jetstream.ErrKeyNotFound) {
		return errors.WrapWithCode(err, errors.ErrCodeUnavailable, "kv delete")
	}
	return nil
}

// List returns every entry ordered by key.
func (s *NATSStore) List(ctx context.Context) ([]Entry, error) {
	if s.closed.Load() {
		return nil, errClosed()
	}

	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "kv list keys")
	}
	defer lister.Stop()

	var entries []Entry
	for key := range lister.Keys() {
		e, err := s.kv.Get(ctx, key)
		if err != nil {
			// deleted between listing and reading
			if stderrors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, errors.WrapWithCode(err, errors.ErrCodeUnavailable, "kv get")
		}
		entries = append(entries, entryFromNATS(e))
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Key, b.Key) })
	return entries, nil
}

// Close marks the store closed. The connection belongs to the caller.
func (s *NATSStore) Close() error {
	s.closed.Store(true)
	return nil
}

func entryFromNATS(e jetstream.KeyValueEntry) Entry {
	return Entry{
		Key:      e.Key(),
		Value:    string(e.Value()),
		Revision: e.Revision(),
		Modified: e.Created(),
	}
}
