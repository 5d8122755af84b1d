package relay

import (
	"context"

	"github.com/vinayprograms/recents/settings"
)

// StoreRecorder is a Callback that writes every event into a settings
// store, keeping the last value per key for peers that join later.
type StoreRecorder struct {
	store settings.Store
}

// NewStoreRecorder records into store.
func NewStoreRecorder(store settings.Store) *StoreRecorder {
	return &StoreRecorder{store: store}
}

func (r *StoreRecorder) Name() string { return "settings-store" }

func (r *StoreRecorder) OnValueChanged(ctx context.Context, ev Event) error {
	_, err := r.store.Put(ctx, ev.Key, ev.Value)
	return err
}

func (r *StoreRecorder) OnServiceDied(context.Context) error { return nil }
