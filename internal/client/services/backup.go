package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/client/binding"
	"github.com/dmitrijs2005/vinocave/internal/client/cache"
	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/logging"
	"github.com/dmitrijs2005/vinocave/internal/netx"
)

const backupContentType = "application/json"

// Snapshot is the JSON document uploaded by a backup.
type Snapshot struct {
	OwnerID    string             `json:"ownerId"`
	TakenAt    time.Time          `json:"takenAt"`
	Wines      []SnapshotWine     `json:"wines"`
	Quantities []SnapshotQuantity `json:"quantities"`
}

type SnapshotWine struct {
	ID string `json:"id"`
	models.Wine
}

type SnapshotQuantity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	models.Quantity
}

// BackupService uploads the cached cellar to object storage through a
// presigned URL issued by the server.
type BackupService struct {
	client client.Client
	cache  *cache.Cache
	state  *binding.State
	http   *http.Client
	logger logging.Logger
	now    func() time.Time
}

// NewBackupService uses httpClient for the upload; nil means http.DefaultClient.
func NewBackupService(c client.Client, cc *cache.Cache, state *binding.State, httpClient *http.Client, logger logging.Logger) *BackupService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BackupService{
		client: c,
		cache:  cc,
		state:  state,
		http:   httpClient,
		logger: logger.With("module", "backup"),
		now:    time.Now,
	}
}

// TakeSnapshot copies the cache into a Snapshot.
func (s *BackupService) TakeSnapshot() (Snapshot, error) {
	ownerID, ok := s.state.OwnerID()
	if !ok {
		return Snapshot{}, ErrNotBound
	}

	snap := Snapshot{OwnerID: ownerID, TakenAt: s.now().UTC()}
	for _, w := range s.cache.Wines() {
		snap.Wines = append(snap.Wines, SnapshotWine{ID: w.ID, Wine: w})
	}
	for _, q := range s.cache.Quantities() {
		snap.Quantities = append(snap.Quantities, SnapshotQuantity{ID: q.ID, CreatedAt: q.CreatedAt, Quantity: q})
	}
	return snap, nil
}

// Backup uploads a snapshot and returns the object key it was stored under.
func (s *BackupService) Backup(ctx context.Context) (string, error) {
	snap, err := s.TakeSnapshot()
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key, url, err := s.client.PresignBackup(ctx)
	if err != nil {
		return "", fmt.Errorf("presign backup: %w", err)
	}

	if err := netx.PutPresigned(ctx, s.http, url, backupContentType, body); err != nil {
		s.logger.Warn(ctx, "backup upload failed", "key", key, "error", err)
		return "", fmt.Errorf("upload backup: %w", err)
	}

	s.logger.Info(ctx, "backup uploaded", "key", key, "wines", len(snap.Wines), "quantities", len(snap.Quantities))
	return key, nil
}
