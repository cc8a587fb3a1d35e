// Package setstore persists annotation containers in a NATS JetStream
// key-value bucket.
//
// FeatureSets and WiggleSets are stored as codec envelopes under
// prefixed keys ("featureset.<id>", "wiggleset.<id>") so both kinds
// share one bucket. Writes are create-only or revision-checked: Update
// takes the revision returned by Get and fails with ErrRevisionConflict
// when another writer got there first. Individual Features and Wiggles
// are not stored here; the store operates at container granularity.
package setstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/e-plus-healthcare-alliance/schemas/annotation"
	"github.com/e-plus-healthcare-alliance/schemas/codec"
	"github.com/e-plus-healthcare-alliance/schemas/config"
	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/natsclient"
)

// Key prefixes separating the two container kinds within the bucket.
const (
	featureSetPrefix = "featureset."
	wiggleSetPrefix  = "wiggleset."
)

// listConcurrency caps parallel fetches during List operations.
const listConcurrency = 8

// Store persists encoded annotation containers.
type Store struct {
	kv      *natsclient.KVStore
	encoder *codec.Encoder
	decoder *codec.Decoder
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDecoder replaces the default decoder, e.g. to enable drop-mode
// handling of unknown attribute-value kinds.
func WithDecoder(decoder *codec.Decoder) Option {
	return func(s *Store) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// NewStore creates the bucket named in cfg (if absent) on an already
// connected client and returns a store backed by it.
func NewStore(client *natsclient.Client, cfg config.StoreConfig, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "setstore", "NewStore", "client cannot be nil")
	}
	if cfg.Bucket == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "setstore", "NewStore",
			"bucket name cannot be empty")
	}

	bucket, err := client.CreateKeyValueBucket(context.Background(), jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "encoded annotation feature and wiggle sets",
		History:     10,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "setstore", "NewStore", "create KV bucket")
	}

	s := &Store{
		kv:      client.NewKVStore(bucket),
		encoder: codec.NewEncoder(),
		decoder: codec.NewDecoder(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateFeatureSet stores a new feature set. It fails when a set with
// the same ID already exists.
func (s *Store) CreateFeatureSet(ctx context.Context, fs *annotation.FeatureSet) error {
	if fs == nil {
		return errors.WrapInvalid(errors.ErrMissingRequired, "setstore", "CreateFeatureSet", "feature set cannot be nil")
	}
	return s.create(ctx, "CreateFeatureSet", featureSetPrefix+fs.ID, fs)
}

// GetFeatureSet retrieves a feature set and the revision to pass to
// UpdateFeatureSet.
func (s *Store) GetFeatureSet(ctx context.Context, id string) (*annotation.FeatureSet, uint64, error) {
	rec, rev, err := s.get(ctx, "GetFeatureSet", featureSetPrefix+id, id)
	if err != nil {
		return nil, 0, err
	}
	fs, ok := rec.(*annotation.FeatureSet)
	if !ok {
		return nil, 0, errors.WrapFatal(errors.ErrBadUnionTag, "setstore", "GetFeatureSet",
			fmt.Sprintf("stored record for %q is not a feature set", id))
	}
	return fs, rev, nil
}

// UpdateFeatureSet overwrites an existing feature set if revision still
// matches the stored entry, returning the new revision.
func (s *Store) UpdateFeatureSet(
	ctx context.Context, fs *annotation.FeatureSet, revision uint64,
) (uint64, error) {
	if fs == nil {
		return 0, errors.WrapInvalid(errors.ErrMissingRequired, "setstore", "UpdateFeatureSet", "feature set cannot be nil")
	}
	return s.update(ctx, "UpdateFeatureSet", featureSetPrefix+fs.ID, fs, revision)
}

// DeleteFeatureSet removes a feature set by ID.
func (s *Store) DeleteFeatureSet(ctx context.Context, id string) error {
	return s.delete(ctx, "DeleteFeatureSet", featureSetPrefix+id, id)
}

// ListFeatureSets retrieves every stored feature set.
func (s *Store) ListFeatureSets(ctx context.Context) ([]*annotation.FeatureSet, error) {
	records, err := s.list(ctx, "ListFeatureSets", featureSetPrefix)
	if err != nil {
		return nil, err
	}
	sets := make([]*annotation.FeatureSet, 0, len(records))
	for _, rec := range records {
		fs, ok := rec.(*annotation.FeatureSet)
		if !ok {
			return nil, errors.WrapFatal(errors.ErrBadUnionTag, "setstore", "ListFeatureSets",
				"stored record under feature set key is not a feature set")
		}
		sets = append(sets, fs)
	}
	return sets, nil
}

// CreateWiggleSet stores a new wiggle set. It fails when a set with
// the same ID already exists.
func (s *Store) CreateWiggleSet(ctx context.Context, ws *annotation.WiggleSet) error {
	if ws == nil {
		return errors.WrapInvalid(errors.ErrMissingRequired, "setstore", "CreateWiggleSet", "wiggle set cannot be nil")
	}
	return s.create(ctx, "CreateWiggleSet", wiggleSetPrefix+ws.ID, ws)
}

// GetWiggleSet retrieves a wiggle set and the revision to pass to
// UpdateWiggleSet.
func (s *Store) GetWiggleSet(ctx context.Context, id string) (*annotation.WiggleSet, uint64, error) {
	rec, rev, err := s.get(ctx, "GetWiggleSet", wiggleSetPrefix+id, id)
	if err != nil {
		return nil, 0, err
	}
	ws, ok := rec.(*annotation.WiggleSet)
	if !ok {
		return nil, 0, errors.WrapFatal(errors.ErrBadUnionTag, "setstore", "GetWiggleSet",
			fmt.Sprintf("stored record for %q is not a wiggle set", id))
	}
	return ws, rev, nil
}

// UpdateWiggleSet overwrites an existing wiggle set if revision still
// matches the stored entry, returning the new revision.
func (s *Store) UpdateWiggleSet(
	ctx context.Context, ws *annotation.WiggleSet, revision uint64,
) (uint64, error) {
	if ws == nil {
		return 0, errors.WrapInvalid(errors.ErrMissingRequired, "setstore", "UpdateWiggleSet", "wiggle set cannot be nil")
	}
	return s.update(ctx, "UpdateWiggleSet", wiggleSetPrefix+ws.ID, ws, revision)
}

// DeleteWiggleSet removes a wiggle set by ID.
func (s *Store) DeleteWiggleSet(ctx context.Context, id string) error {
	return s.delete(ctx, "DeleteWiggleSet", wiggleSetPrefix+id, id)
}

// ListWiggleSets retrieves every stored wiggle set.
func (s *Store) ListWiggleSets(ctx context.Context) ([]*annotation.WiggleSet, error) {
	records, err := s.list(ctx, "ListWiggleSets", wiggleSetPrefix)
	if err != nil {
		return nil, err
	}
	sets := make([]*annotation.WiggleSet, 0, len(records))
	for _, rec := range records {
		ws, ok := rec.(*annotation.WiggleSet)
		if !ok {
			return nil, errors.WrapFatal(errors.ErrBadUnionTag, "setstore", "ListWiggleSets",
				"stored record under wiggle set key is not a wiggle set")
		}
		sets = append(sets, ws)
	}
	return sets, nil
}

func (s *Store) create(ctx context.Context, method, key string, rec codec.Record) error {
	data, err := s.encoder.Encode(rec)
	if err != nil {
		return errors.WrapInvalid(err, "setstore", method, "encode record")
	}

	if _, err := s.kv.Create(ctx, key, data); err != nil {
		if natsclient.IsKVConflictError(err) {
			return errors.WrapInvalid(err, "setstore", method, "set already exists")
		}
		return errors.WrapTransient(err, "setstore", method, "create in KV")
	}

	s.logger.Debug("stored annotation set", "key", key)
	return nil
}

func (s *Store) get(ctx context.Context, method, key, id string) (codec.Record, uint64, error) {
	if id == "" {
		return nil, 0, errors.WrapInvalid(errors.ErrMissingRequired, "setstore", method, "set ID cannot be empty")
	}

	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, 0, errors.WrapInvalid(errors.ErrNotFound, "setstore", method,
				fmt.Sprintf("set %q", id))
		}
		return nil, 0, errors.WrapTransient(err, "setstore", method, "get from KV")
	}

	rec, err := s.decoder.Decode(entry.Value)
	if err != nil {
		return nil, 0, errors.WrapFatal(err, "setstore", method, "decode stored record")
	}
	return rec, entry.Revision, nil
}

func (s *Store) update(
	ctx context.Context, method, key string, rec codec.Record, revision uint64,
) (uint64, error) {
	data, err := s.encoder.Encode(rec)
	if err != nil {
		return 0, errors.WrapInvalid(err, "setstore", method, "encode record")
	}

	rev, err := s.kv.Update(ctx, key, data, revision)
	if err != nil {
		if natsclient.IsKVConflictError(err) {
			return 0, errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrRevisionConflict, err),
				"setstore", method, "set was modified by another writer")
		}
		return 0, errors.WrapTransient(err, "setstore", method, "update in KV")
	}

	s.logger.Debug("updated annotation set", "key", key, "revision", rev)
	return rev, nil
}

func (s *Store) delete(ctx context.Context, method, key, id string) error {
	if id == "" {
		return errors.WrapInvalid(errors.ErrMissingRequired, "setstore", method, "set ID cannot be empty")
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return errors.WrapInvalid(errors.ErrNotFound, "setstore", method,
				fmt.Sprintf("set %q", id))
		}
		return errors.WrapTransient(err, "setstore", method, "delete from KV")
	}
	return nil
}

// list fetches and decodes every record under prefix, fetching in
// parallel while keeping key order in the result.
func (s *Store) list(ctx context.Context, method, prefix string) ([]codec.Record, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "setstore", method, "list KV keys")
	}

	matched := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}

	records := make([]codec.Record, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, key := range matched {
		g.Go(func() error {
			entry, err := s.kv.Get(gctx, key)
			if err != nil {
				// Deleted between Keys and Get; skip it.
				if natsclient.IsKVNotFoundError(err) {
					return nil
				}
				return errors.WrapTransient(err, "setstore", method, "get from KV")
			}
			rec, err := s.decoder.Decode(entry.Value)
			if err != nil {
				return errors.WrapFatal(err, "setstore", method,
					fmt.Sprintf("decode stored record %q", key))
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]codec.Record, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
