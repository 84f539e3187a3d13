// Package policy is the single place where role and ownership rules are decided.
package policy

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

// Kind names a protected resource family.
type Kind string

const (
	KindQuote         Kind = "quote"
	KindOrder         Kind = "order"
	KindProduct       Kind = "product"
	KindReceipt       Kind = "receipt"
	KindUser          Kind = "user"
	KindConfiguration Kind = "configuration"
	KindLogo          Kind = "logo"
	KindReport        Kind = "report"
)

// Action is what the actor attempts on a resource.
type Action string

const (
	ActionList    Action = "list"
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionConvert Action = "convert"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor holds the elevated role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// Resource identifies the target; OwnerID is nil for collections and unowned rows.
type Resource struct {
	Kind    Kind
	OwnerID *uuid.UUID
}

// Collection is the resource for list and create checks.
func Collection(kind Kind) Resource {
	return Resource{Kind: kind}
}

// Owned is the resource for an existing row owned by ownerID.
func Owned(kind Kind, ownerID uuid.UUID) Resource {
	return Resource{Kind: kind, OwnerID: &ownerID}
}

// Authorize returns nil when actor may perform action on resource. Denials on
// another user's quote, order or receipt are reported as not found so row
// existence does not leak.
func Authorize(actor Actor, action Action, resource Resource) error {
	if actor.UserID == uuid.Nil || !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	switch resource.Kind {
	case KindQuote, KindOrder:
		if action == ActionList || action == ActionCreate {
			return nil
		}
		if actor.IsAdmin() || owns(actor, resource) {
			return nil
		}
		return notFound(resource.Kind)

	case KindReceipt:
		if action == ActionList || action == ActionCreate {
			return nil
		}
		if owns(actor, resource) {
			return nil
		}
		return notFound(resource.Kind)

	case KindProduct:
		if action == ActionList || action == ActionRead {
			return nil
		}
		if actor.Role == enums.UserRoleAdmin || actor.Role == enums.UserRoleManager {
			return nil
		}
		return forbidden("only admins and managers may change products")

	case KindUser, KindConfiguration, KindLogo:
		if actor.IsAdmin() {
			return nil
		}
		return forbidden("admin access required")

	case KindReport:
		if action == ActionRead || action == ActionList {
			return nil
		}
		return forbidden("reports are read only")
	}

	return forbidden("access denied")
}

// OwnerScope returns the owner filter a list query must apply, or nil when the
// actor may see every row of kind.
func OwnerScope(actor Actor, kind Kind) *uuid.UUID {
	switch kind {
	case KindQuote, KindOrder, KindReport:
		if actor.IsAdmin() {
			return nil
		}
	case KindProduct, KindUser, KindConfiguration:
		return nil
	}
	id := actor.UserID
	return &id
}

func owns(actor Actor, resource Resource) bool {
	return resource.OwnerID != nil && *resource.OwnerID == actor.UserID
}

func notFound(kind Kind) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, string(kind)+" not found")
}

func forbidden(msg string) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, msg)
}
