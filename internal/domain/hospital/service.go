package hospital

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/nfi/casedesk/internal/platform/apperr"
	"github.com/nfi/casedesk/internal/platform/auth"
	"github.com/nfi/casedesk/internal/platform/db"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	tx       db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, validate: apperr.NewValidator(), tx: tx}
}

// Resolve returns the process type of the hospital's active mapping.
// apperr.ErrMappingMissing is returned when there is none.
func (s *Service) Resolve(ctx context.Context, hospitalID uuid.UUID) (ProcessType, error) {
	m, err := s.repo.ActiveForHospital(ctx, hospitalID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", fmt.Errorf("hospital %s: %w", hospitalID, apperr.ErrMappingMissing)
	}
	if err != nil {
		return "", err
	}
	return m.ProcessType, nil
}

func (s *Service) GetMap(ctx context.Context, id uuid.UUID) (*ProcessMap, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListMaps(ctx context.Context, f ListFilter, limit, offset int) ([]*ProcessMap, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) CreateMap(ctx context.Context, sess auth.Session, req MapRequest) (*ProcessMap, error) {
	if !sess.CanManageReferenceData() {
		return nil, apperr.Forbidden("only program managers may edit hospital process maps")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidator(err)
	}

	m := &ProcessMap{}
	req.apply(m)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.ensureSingleActive(ctx, m); err != nil {
			return err
		}
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) UpdateMap(ctx context.Context, sess auth.Session, id uuid.UUID, req MapRequest) (*ProcessMap, error) {
	if !sess.CanManageReferenceData() {
		return nil, apperr.Forbidden("only program managers may edit hospital process maps")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.FromValidator(err)
	}

	var m *ProcessMap
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if m, err = s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		req.apply(m)
		if err := s.ensureSingleActive(ctx, m); err != nil {
			return err
		}
		return s.repo.Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) DeleteMap(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	if !sess.CanManageReferenceData() {
		return apperr.Forbidden("only program managers may edit hospital process maps")
	}
	return s.repo.Delete(ctx, id)
}

// ensureSingleActive rejects a write that would leave two active mappings
// for one hospital. The partial unique index backs this up under races.
func (s *Service) ensureSingleActive(ctx context.Context, m *ProcessMap) error {
	if !m.IsActive {
		return nil
	}
	n, err := s.repo.CountActive(ctx, m.HospitalID, m.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict(fmt.Sprintf("hospital %s already has an active process mapping; deactivate it first", m.HospitalID))
	}
	return nil
}
