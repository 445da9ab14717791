package cloudstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Firestore implements Store over a company-partitioned Firestore database:
// every collection lives under companies/{companyID}/{collection}, so one
// project serves many tenants without any cross-tenant reads.
type Firestore struct {
	client    *firestore.Client
	companyID string
	online    func() bool
}

// NewFirestore wraps an authenticated client. online is polled before every
// operation — the agent's connectivity checker feeds it, so sync calls made
// while offline degrade to ErrOffline instead of hanging on the network.
func NewFirestore(client *firestore.Client, companyID string, online func() bool) *Firestore {
	return &Firestore{client: client, companyID: companyID, online: online}
}

func (f *Firestore) Online() bool { return f.online() }

func (f *Firestore) coll(name string) *firestore.CollectionRef {
	return f.client.Collection("companies").Doc(f.companyID).Collection(name)
}

func (f *Firestore) SetMergeAll(ctx context.Context, collection string, docs map[string]Doc) error {
	if !f.online() {
		return ErrOffline
	}
	batch := f.client.Batch()
	coll := f.coll(collection)
	for id, doc := range docs {
		batch.Set(coll.Doc(id), map[string]any(doc), firestore.MergeAll)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("cloudstore: commit batch %s (%d docs): %w", collection, len(docs), err)
	}
	return nil
}

func (f *Firestore) GetAll(ctx context.Context, collection string) (map[string]Doc, error) {
	if !f.online() {
		return nil, ErrOffline
	}
	out := make(map[string]Doc)
	iter := f.coll(collection).Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cloudstore: leer %s: %w", collection, err)
		}
		out[snap.Ref.ID] = Doc(snap.Data())
	}
	return out, nil
}

func (f *Firestore) Query(ctx context.Context, collection, field, op string, value any, orderBy string, dir Direction, limit int) ([]Snapshot, error) {
	if !f.online() {
		return nil, ErrOffline
	}
	q := f.coll(collection).Where(field, op, value)
	if orderBy != "" {
		fsDir := firestore.Asc
		if dir == Desc {
			fsDir = firestore.Desc
		}
		q = q.OrderBy(orderBy, fsDir)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []Snapshot
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cloudstore: query %s.%s %s: %w", collection, field, op, err)
		}
		out = append(out, Snapshot{ID: snap.Ref.ID, Data: Doc(snap.Data())})
	}
	return out, nil
}

// Deshabilitado is the Store used when the agent starts without cloud
// credentials: permanently offline, every operation a clean no-op error.
type Deshabilitado struct{}

func (Deshabilitado) Online() bool { return false }

func (Deshabilitado) SetMergeAll(context.Context, string, map[string]Doc) error {
	return ErrOffline
}

func (Deshabilitado) GetAll(context.Context, string) (map[string]Doc, error) {
	return nil, ErrOffline
}

func (Deshabilitado) Query(context.Context, string, string, string, any, string, Direction, int) ([]Snapshot, error) {
	return nil, ErrOffline
}
