package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/client/binding"
	"github.com/dmitrijs2005/vinocave/internal/client/cache"
	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
)

// storeTime is the base of creation times assigned by fakeRemote.
var storeTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeRemote is an in-memory document store that counts writes.
type fakeRemote struct {
	client.Client

	mu         sync.Mutex
	seq        int
	owners     map[string]string
	wines      []models.Wine
	quantities []models.Quantity
	writes     int

	// failures
	wineErr           error
	createErrByYear   map[int]error
	updateErr         error
	deleteQuantityErr error
	deleteWineErr     error
	fetchErr          error
	presignKey        string
	presignURL        string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{owners: map[string]string{}}
}

func (f *fakeRemote) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeRemote) CreateOwner(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("o")
	f.owners[id] = name
	return id, nil
}

func (f *fakeRemote) ResolveOwner(ctx context.Context, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.owners[code]; !ok {
		return "", client.ErrNotFound
	}
	return code, nil
}

func (f *fakeRemote) FetchWines(ctx context.Context, ownerID string) ([]models.Wine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []models.Wine
	for _, w := range f.wines {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeRemote) FetchQuantities(ctx context.Context, ownerID string) ([]models.Quantity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var out []models.Quantity
	for _, q := range f.quantities {
		if q.OwnerID == ownerID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateOrUpdateWine(ctx context.Context, w models.Wine) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wineErr != nil {
		return "", f.wineErr
	}
	f.writes++
	if w.ID == "" {
		w.ID = f.nextID("w")
		f.wines = append(f.wines, w)
		return w.ID, nil
	}
	i := slices.IndexFunc(f.wines, func(x models.Wine) bool { return x.ID == w.ID })
	if i < 0 {
		f.wines = append(f.wines, w)
	} else {
		f.wines[i] = w
	}
	return w.ID, nil
}

func (f *fakeRemote) CreateQuantity(ctx context.Context, q models.Quantity) (models.Quantity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErrByYear[q.Year]; err != nil {
		return models.Quantity{}, err
	}
	f.writes++
	q.ID = f.nextID("q")
	q.CreatedAt = storeTime.Add(time.Duration(f.writes) * time.Second)
	f.quantities = append(f.quantities, q)
	return q, nil
}

func (f *fakeRemote) UpdateQuantity(ctx context.Context, q models.Quantity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.writes++
	i := slices.IndexFunc(f.quantities, func(x models.Quantity) bool { return x.ID == q.ID })
	if i < 0 {
		f.quantities = append(f.quantities, q)
	} else {
		f.quantities[i] = q
	}
	return nil
}

func (f *fakeRemote) DeleteWine(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteWineErr != nil {
		return f.deleteWineErr
	}
	f.writes++
	f.wines = slices.DeleteFunc(f.wines, func(w models.Wine) bool { return w.ID == id })
	return nil
}

func (f *fakeRemote) DeleteQuantity(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteQuantityErr != nil {
		return f.deleteQuantityErr
	}
	f.writes++
	f.quantities = slices.DeleteFunc(f.quantities, func(q models.Quantity) bool { return q.ID == id })
	return nil
}

func (f *fakeRemote) PresignBackup(ctx context.Context) (string, string, error) {
	if f.presignURL == "" {
		return "", "", client.ErrUnavailable
	}
	return f.presignKey, f.presignURL, nil
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// memOwnerStore keeps the bound owner in memory.
type memOwnerStore struct {
	ownerID string
	saveErr error
}

func (m *memOwnerStore) LoadOwnerID(ctx context.Context) (string, error) { return m.ownerID, nil }

func (m *memOwnerStore) SaveOwnerID(ctx context.Context, id string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ownerID = id
	return nil
}

func (m *memOwnerStore) ClearOwnerID(ctx context.Context) error {
	m.ownerID = ""
	return nil
}

type fixture struct {
	remote    *fakeRemote
	cache     *cache.Cache
	state     *binding.State
	store     *memOwnerStore
	ownership OwnershipService
	cellar    CellarService
}

func newFixture() *fixture {
	f := &fixture{
		remote: newFakeRemote(),
		cache:  cache.New(nil, nil),
		state:  binding.New(),
		store:  &memOwnerStore{},
	}
	f.ownership = NewOwnershipService(f.remote, f.cache, f.state, f.store, "Ma cave", nil)
	f.cellar = NewCellarService(f.remote, f.cache, f.ownership, nil)
	return f
}

// seedOwner creates an owner holding one wine with the given vintages.
func (f *fixture) seedOwner(name string, wine models.Wine, vintages map[int]int) string {
	ownerID, _ := f.remote.CreateOwner(context.Background(), name)
	wine.OwnerID = ownerID
	wineID, _ := f.remote.CreateOrUpdateWine(context.Background(), wine)
	for year, n := range vintages {
		_, _ = f.remote.CreateQuantity(context.Background(), models.Quantity{OwnerID: ownerID, WineID: wineID, Year: year, Count: n})
	}
	f.remote.writes = 0
	return ownerID
}
