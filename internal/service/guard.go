package service

import (
	"fmt"

	"github.com/iliyamo/knowledgehub/internal/apperr"
)

// Owned is any resource with a single owner.
type Owned interface {
	OwnerID() uint64
	ResourceName() string
}

// AssertOwner fails with Forbidden unless actorID owns res. action names the
// attempted operation in the error message ("edit", "delete").
//
// Callers load the resource first, so a missing resource surfaces as
// NotFound and a foreign one as Forbidden. The two are distinguishable by
// non-owners.
func AssertOwner(res Owned, actorID uint64, action string) error {
	if res.OwnerID() != actorID {
		return apperr.Forbidden(fmt.Sprintf("You are not authorized to %s this %s", action, res.ResourceName()))
	}
	return nil
}
