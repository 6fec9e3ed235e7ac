// Package identity resolves who a cart belongs to: a signed-in user or an
// anonymous shopper identified by an opaque token.
package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerKey identifies a cart owner. Exactly one of UserID or AnonymousToken is set.
type OwnerKey struct {
	UserID         uint
	AnonymousToken string
}

func UserOwner(userID uint) OwnerKey {
	return OwnerKey{UserID: userID}
}

func AnonymousOwner(token string) OwnerKey {
	return OwnerKey{AnonymousToken: token}
}

func (k OwnerKey) IsAuthenticated() bool {
	return k.UserID != 0
}

// String is the persisted cart owner key
func (k OwnerKey) String() string {
	if k.IsAuthenticated() {
		return fmt.Sprintf("user:%d", k.UserID)
	}
	return "anon:" + k.AnonymousToken
}

// UserIDPtr returns the user id for storage, nil for anonymous owners
func (k OwnerKey) UserIDPtr() *uint {
	if !k.IsAuthenticated() {
		return nil
	}
	id := k.UserID
	return &id
}

// Resolution is the outcome of resolving a request's identity.
// MintedToken is non-empty only when a new anonymous token was issued and must be persisted by the caller.
type Resolution struct {
	Owner       OwnerKey
	MintedToken string
}

type Resolver struct {
	newToken func() string
}

func NewResolver() *Resolver {
	return &Resolver{newToken: uuid.NewString}
}

// Resolve picks the owner for a request. An authenticated user always wins.
// Otherwise a well-formed anonymous token is reused, and a missing or malformed one is replaced.
func (r *Resolver) Resolve(userID *uint, anonymousToken string) Resolution {
	if userID != nil && *userID != 0 {
		return Resolution{Owner: UserOwner(*userID)}
	}

	if ValidToken(anonymousToken) {
		return Resolution{Owner: AnonymousOwner(anonymousToken)}
	}

	token := r.newToken()
	return Resolution{Owner: AnonymousOwner(token), MintedToken: token}
}

// ValidToken reports whether token has the shape of an issued anonymous token
func ValidToken(token string) bool {
	if token == "" {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}
