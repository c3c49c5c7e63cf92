package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// Administrative confirmation messages.
const (
	MsgEmailConfirmed   = "Email confirmed successfully"
	MsgAlreadyConfirmed = "Email already confirmed"
	MsgUserNotFound     = "User not found"
)

// AdminConfirmation is the outcome of ConfirmEmailAsAdmin.
type AdminConfirmation struct {
	Identity         domain.Identity
	AlreadyConfirmed bool
	Message          string
}

// ConfirmEmailAsAdmin marks a registered address confirmed without the
// emailed link. It fails with KindConfiguration when the backend has no
// administrative key.
func (s *RegistrationService) ConfirmEmailAsAdmin(ctx context.Context, in AdminConfirmInput) (*AdminConfirmation, error) {
	l := slogx.FromContext(ctx)
	in.Email = strings.TrimSpace(in.Email)

	if fields := ValidateAdminConfirm(in); len(fields) > 0 {
		return nil, validationError(fields)
	}

	res, err := s.Identity.AdminConfirmEmail(ctx, in.Email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAdminUnavailable):
			l.Error("admin confirmation without administrative key")
			return nil, &Error{Kind: KindConfiguration, Message: MsgAdminUnavailable, Err: err}
		case errors.Is(err, identity.ErrUserNotFound):
			return nil, &Error{Kind: KindNotFound, Message: MsgUserNotFound, Err: err}
		default:
			l.Error("admin confirmation failed", "email", slogx.MaskEmail(in.Email), "error", err)
			return nil, &Error{Kind: KindProvider, Message: MsgProviderFailure, Detail: identity.Detail(err), Err: err}
		}
	}

	out := &AdminConfirmation{
		Identity:         res.Identity,
		AlreadyConfirmed: res.AlreadyConfirmed,
		Message:          MsgEmailConfirmed,
	}
	if res.AlreadyConfirmed {
		out.Message = MsgAlreadyConfirmed
	}
	l.Info("email confirmed by admin", "user_id", res.Identity.ID, "already_confirmed", res.AlreadyConfirmed)
	return out, nil
}
