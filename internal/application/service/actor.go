package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/travel-approval/internal/application/port"
	appwf "github.com/garyjia/travel-approval/internal/application/workflow"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// ActorRef identifies who is acting. A non-zero UserID, taken from a verified
// token, wins over Email.
type ActorRef struct {
	UserID int64
	Email  string
}

// IsZero reports whether the reference names nobody
func (r ActorRef) IsZero() bool {
	return r.UserID == 0 && strings.TrimSpace(r.Email) == ""
}

type actorResolver struct {
	userRepo port.UserRepository
}

// resolve loads the acting user. An unknown user yields a nil actor so the
// validator can report it as unprocessable.
func (r actorResolver) resolve(ctx context.Context, ref ActorRef) (*domainwf.Actor, error) {
	if ref.UserID != 0 {
		user, err := r.userRepo.GetByID(ctx, ref.UserID)
		if err != nil {
			return nil, fmt.Errorf("get user %d: %w", ref.UserID, err)
		}
		return appwf.ActorFromUser(user), nil
	}

	email := strings.TrimSpace(ref.Email)
	if email == "" {
		return nil, nil
	}
	user, err := r.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return appwf.ActorFromUser(user), nil
}
