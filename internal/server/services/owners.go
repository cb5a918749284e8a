// Package services holds the document store's business logic: owner
// creation and token grants, owner-scoped document access and backup presigning.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/common"
	"github.com/dmitrijs2005/vinocave/internal/server/auth"
	"github.com/dmitrijs2005/vinocave/internal/server/config"
	"github.com/dmitrijs2005/vinocave/internal/server/models"
	"github.com/dmitrijs2005/vinocave/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const maxOwnerNameLength = 200

// OwnerGrant is what a client receives when it creates or resolves an owner.
type OwnerGrant struct {
	OwnerID     string
	AccessToken string
}

type OwnerService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	newID                       func() string
}

func NewOwnerService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *OwnerService {
	return &OwnerService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		newID:                       uuid.NewString,
	}
}

// Create registers a new owner and returns a token scoped to it.
func (s *OwnerService) Create(ctx context.Context, name string) (*OwnerGrant, error) {
	name = strings.TrimSpace(name)
	if len(name) > maxOwnerNameLength {
		return nil, fmt.Errorf("%w: owner name too long", common.ErrorValidation)
	}

	owner, err := s.repomanager.Owners(s.db).Create(ctx, &models.Owner{ID: s.newID(), Name: name})
	if err != nil {
		return nil, fmt.Errorf("error creating owner: %w", err)
	}

	return s.grant(owner.ID)
}

// Resolve issues a fresh token for an existing owner. Unknown ids yield
// common.ErrorNotFound.
func (s *OwnerService) Resolve(ctx context.Context, ownerID string) (*OwnerGrant, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", common.ErrorValidation)
	}

	owner, err := s.repomanager.Owners(s.db).Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error resolving owner: %w", err)
	}

	return s.grant(owner.ID)
}

func (s *OwnerService) grant(ownerID string) (*OwnerGrant, error) {
	token, err := auth.GenerateToken(ownerID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return &OwnerGrant{OwnerID: ownerID, AccessToken: token}, nil
}
