package services

import (
	"fmt"

	"github.com/SscSPs/bizledger/internal/apperrors"
)

var (
	ErrAccountReferenced  = fmt.Errorf("%w: account is referenced by journal lines", apperrors.ErrConflict)
	ErrAccountHasChildren = fmt.Errorf("%w: account has child accounts", apperrors.ErrConflict)
	ErrAccountInactive    = fmt.Errorf("%w: account is inactive", apperrors.ErrValidation)
	ErrSetEmpty           = fmt.Errorf("%w: transaction set has no business transactions", apperrors.ErrValidation)
	ErrApprovalDecided    = fmt.Errorf("%w: approval already decided", apperrors.ErrConflict)
	ErrMissingRole        = fmt.Errorf("%w: decider does not hold the required role", apperrors.ErrForbidden)
	ErrReasonRequired     = fmt.Errorf("%w: reason is required", apperrors.ErrValidation)
	ErrReversalBackdated  = fmt.Errorf("%w: reversal cannot be dated before the entry it reverses", apperrors.ErrValidation)
	ErrRunNotFailed       = fmt.Errorf("%w: posting run is not in FAILED state", apperrors.ErrConflict)
)
