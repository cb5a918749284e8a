package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/vinocave/internal/client/binding"
	"github.com/dmitrijs2005/vinocave/internal/client/cache"
	"github.com/dmitrijs2005/vinocave/internal/client/client"
	"github.com/dmitrijs2005/vinocave/internal/client/models"
	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/logging"
	"golang.org/x/sync/errgroup"
)

// OwnerStore persists the bound owner across restarts.
type OwnerStore interface {
	LoadOwnerID(ctx context.Context) (string, error)
	SaveOwnerID(ctx context.Context, ownerID string) error
	ClearOwnerID(ctx context.Context) error
}

// OwnershipService moves the device between Unbound and Bound(ownerID).
//
// Contract:
//   - Bootstrap: restore the persisted owner, render the local mirror and
//     refetch. A failed fetch keeps the device bound and offline.
//   - JoinByCode: resolve a code; on success reset, bind, persist and
//     refetch. On failure nothing changes.
//   - EnsureOwner: return the bound owner, creating one when unbound.
//   - Leave: unbind and clear the cache. Remote data is left alone.
//   - Refetch: replace the cache with the bound owner's remote data.
type OwnershipService interface {
	Bootstrap(ctx context.Context) error
	JoinByCode(ctx context.Context, code string) error
	EnsureOwner(ctx context.Context) (string, error)
	Leave(ctx context.Context) error
	Refetch(ctx context.Context) error
	OwnerID() (string, bool)
	ShareLink() (string, error)
}

type ownershipService struct {
	client    client.Client
	cache     *cache.Cache
	state     *binding.State
	store     OwnerStore
	ownerName string
	logger    logging.Logger
}

// NewOwnershipService builds the resolver. ownerName is the display name
// given to owners created by EnsureOwner.
func NewOwnershipService(c client.Client, cc *cache.Cache, state *binding.State, store OwnerStore, ownerName string, logger logging.Logger) OwnershipService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ownershipService{
		client:    c,
		cache:     cc,
		state:     state,
		store:     store,
		ownerName: ownerName,
		logger:    logger.With("module", "ownership"),
	}
}

func (s *ownershipService) OwnerID() (string, bool) {
	return s.state.OwnerID()
}

func (s *ownershipService) Bootstrap(ctx context.Context) error {
	ownerID, err := s.store.LoadOwnerID(ctx)
	if err != nil {
		return fmt.Errorf("load bound owner: %w", err)
	}
	if ownerID == "" {
		s.state.Unbind()
		s.logger.Info(ctx, "no bound owner")
		return nil
	}

	s.state.Bind(ownerID)
	if ok, err := s.cache.LoadMirror(ctx); err != nil {
		s.logger.Warn(ctx, "local mirror unreadable", "error", err)
	} else if ok {
		s.logger.Debug(ctx, "local mirror loaded", "owner_id", ownerID)
	}

	return s.Refetch(ctx)
}

func (s *ownershipService) JoinByCode(ctx context.Context, code string) error {
	code, err := ParseJoinCode(code)
	if err != nil {
		return err
	}

	ownerID, err := s.client.ResolveOwner(ctx, code)
	if err != nil {
		s.logger.Info(ctx, "join code not resolved", "error", err)
		return err
	}

	s.cache.Reset(ctx)
	s.state.Bind(ownerID)
	if err := s.store.SaveOwnerID(ctx, ownerID); err != nil {
		s.logger.Warn(ctx, "bound owner not persisted", "owner_id", ownerID, "error", err)
	}
	s.logger.Info(ctx, "joined cellar", "owner_id", ownerID)

	if err := s.Refetch(ctx); err != nil {
		return fmt.Errorf("joined %s but fetch failed: %w", ownerID, err)
	}
	return nil
}

func (s *ownershipService) EnsureOwner(ctx context.Context) (string, error) {
	if id, ok := s.state.OwnerID(); ok {
		return id, nil
	}

	id, err := s.client.CreateOwner(ctx, s.ownerName)
	if err != nil {
		return "", fmt.Errorf("create owner: %w", err)
	}

	s.state.Bind(id)
	if err := s.store.SaveOwnerID(ctx, id); err != nil {
		s.logger.Warn(ctx, "bound owner not persisted", "owner_id", id, "error", err)
	}
	s.logger.Info(ctx, "owner created", "owner_id", id)
	return id, nil
}

func (s *ownershipService) Leave(ctx context.Context) error {
	s.state.Unbind()
	s.cache.Reset(ctx)
	if err := s.store.ClearOwnerID(ctx); err != nil {
		return fmt.Errorf("forget bound owner: %w", err)
	}
	return nil
}

// Refetch loads wines and quantities concurrently. Either failure leaves
// the cache untouched. A result that arrives after the device was rebound
// is dropped.
func (s *ownershipService) Refetch(ctx context.Context) error {
	ownerID, ok := s.state.OwnerID()
	if !ok {
		return ErrNotBound
	}

	var (
		wines      []models.Wine
		quantities []models.Quantity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wines, err = s.client.FetchWines(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		quantities, err = s.client.FetchQuantities(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn(ctx, "refetch failed", "owner_id", ownerID, "error", err)
		return err
	}

	if current, _ := s.state.OwnerID(); current != ownerID {
		s.logger.Info(ctx, "stale fetch dropped", "owner_id", ownerID, "bound", current)
		return nil
	}

	s.cache.Replace(ctx, wines, quantities)
	s.logger.Debug(ctx, "cache refreshed", "owner_id", ownerID, "wines", len(wines), "quantities", len(quantities))
	return nil
}

func (s *ownershipService) ShareLink() (string, error) {
	ownerID, ok := s.state.OwnerID()
	if !ok {
		return "", ErrNotBound
	}
	return ShareLink(ownerID), nil
}

// ShareLink renders the deep link carrying ownerID as a join code.
func ShareLink(ownerID string) string {
	u := url.URL{Scheme: common.ShareLinkScheme, Host: common.ShareLinkHost, Path: "/" + ownerID}
	return u.String()
}

// ParseJoinCode accepts a bare code or a share link and returns the code.
func ParseJoinCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidCode
	}

	if !strings.Contains(s, "://") {
		if strings.ContainsAny(s, "/ \t") {
			return "", fmt.Errorf("%w: %q", ErrInvalidCode, s)
		}
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", errors.Join(ErrInvalidCode, err)
	}
	if u.Scheme != common.ShareLinkScheme || u.Host != common.ShareLinkHost {
		return "", fmt.Errorf("%w: unexpected link %q", ErrInvalidCode, s)
	}
	code := strings.Trim(u.Path, "/")
	if code == "" || strings.Contains(code, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, s)
	}
	return code, nil
}
