package rbac

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/medika/medika/internal/authz"
)

// PrincipalLoader resolves the principal of a user on every request. It is
// never cached: role or doctor links may change between requests. Concurrent
// loads of the same user share one query.
type PrincipalLoader struct {
	store AccountStore
	group singleflight.Group
}

// NewPrincipalLoader constructs a PrincipalLoader.
func NewPrincipalLoader(store AccountStore) *PrincipalLoader {
	return &PrincipalLoader{store: store}
}

// Load returns the principal for userID, ErrNotFound or ErrInactive. The
// shared query ignores cancellation of whichever caller started it. Each
// caller stops waiting when its own ctx ends.
func (l *PrincipalLoader) Load(ctx context.Context, userID int64) (*authz.Principal, error) {
	queryCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(strconv.FormatInt(userID, 10), func() (any, error) {
		acc, err := l.store.AccountByUserID(queryCtx, userID)
		if err != nil {
			return nil, err
		}
		if !acc.IsActive {
			return nil, ErrInactive
		}
		return acc.Principal(), nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	p := *res.Val.(*authz.Principal)
	return &p, nil
}
