package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portsrepo "github.com/SscSPs/bizledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/google/uuid"
)

type approvalService struct {
	BaseService
	approvalRepo portsrepo.ApprovalRepository
	setRepo      portsrepo.TransactionSetReader
}

// NewApprovalService creates the approval service and gate.
func NewApprovalService(approvalRepo portsrepo.ApprovalRepository, setRepo portsrepo.TransactionSetReader, opts ...ServiceOption) portssvc.ApprovalSvcFacade {
	return &approvalService{
		BaseService:  newBaseService(opts...),
		approvalRepo: approvalRepo,
		setRepo:      setRepo,
	}
}

var _ portssvc.ApprovalSvcFacade = (*approvalService)(nil)

// Check reads the latest approval of the entity. Storage errors are returned, never treated as clear.
func (s *approvalService) Check(ctx context.Context, tenantID, entityType, entityID string) (domain.GateDecision, error) {
	latest, err := s.approvalRepo.FindLatestApproval(ctx, tenantID, entityType, entityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.GateClear, nil
		}
		s.LogError(ctx, err, "Failed to read approvals", slog.String("entity_id", entityID))
		return "", err
	}
	return domain.GateDecisionFor(latest), nil
}

func (s *approvalService) RequestApproval(ctx context.Context, tenantID string, req dto.RequestApprovalRequest, actorID string) (*domain.Approval, error) {
	if req.EntityType != domain.EntityTypeTransactionSet {
		return nil, fmt.Errorf("%w: unsupported entity type %q", apperrors.ErrValidation, req.EntityType)
	}
	if req.RequiredRoleName == "" {
		return nil, fmt.Errorf("%w: required role is missing", apperrors.ErrValidation)
	}
	set, err := s.setRepo.FindTransactionSetByID(ctx, tenantID, req.EntityID)
	if err != nil {
		return nil, err
	}
	if set.Status == domain.SetPosted {
		return nil, apperrors.NewPostingError(apperrors.KindInvalidState, set.ID, "posted sets need no approval").
			WithState(string(domain.SetReview), string(set.Status))
	}

	approval := domain.Approval{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		EntityType:       req.EntityType,
		EntityID:         req.EntityID,
		RequiredRoleName: req.RequiredRoleName,
		Status:           domain.ApprovalPending,
		CreatedByActorID: actorID,
		CreatedAt:        s.Now(),
	}
	if err := s.approvalRepo.SaveApproval(ctx, approval); err != nil {
		s.LogError(ctx, err, "Failed to save approval", slog.String("entity_id", req.EntityID))
		return nil, err
	}

	s.LogInfo(ctx, "Approval requested",
		slog.String("approval_id", approval.ID), slog.String("entity_id", approval.EntityID), slog.String("role", approval.RequiredRoleName))
	return &approval, nil
}

func (s *approvalService) DecideApproval(ctx context.Context, tenantID, approvalID string, decision domain.ApprovalStatus, deciderID string, deciderRoles []string) (*domain.Approval, error) {
	if decision != domain.ApprovalApproved && decision != domain.ApprovalRejected {
		return nil, fmt.Errorf("%w: decision must be APPROVED or REJECTED", apperrors.ErrValidation)
	}

	approval, err := s.approvalRepo.FindApprovalByID(ctx, tenantID, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.IsDecided() {
		return nil, ErrApprovalDecided
	}
	if !slices.Contains(deciderRoles, approval.RequiredRoleName) {
		s.LogWarn(ctx, ErrMissingRole, "Approval decision refused",
			slog.String("approval_id", approvalID), slog.String("required_role", approval.RequiredRoleName))
		return nil, ErrMissingRole
	}

	now := s.Now()
	if err := s.approvalRepo.DecideApproval(ctx, tenantID, approvalID, decision, deciderID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, ErrApprovalDecided
		}
		s.LogError(ctx, err, "Failed to record approval decision", slog.String("approval_id", approvalID))
		return nil, err
	}

	approval.Status = decision
	approval.DecidedByUserID = &deciderID
	approval.DecidedAt = &now
	s.LogInfo(ctx, "Approval decided", slog.String("approval_id", approvalID), slog.String("decision", string(decision)))
	return approval, nil
}
