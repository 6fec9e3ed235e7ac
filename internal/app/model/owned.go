package model

// DefaultFlagged is implemented by per-user collections where exactly one
// item is the default whenever the collection is non-empty.
type DefaultFlagged[T any] interface {
	*T
	GetID() uint
	Owner() uint
	SetOwner(userID uint)
	DefaultFlag() bool
	SetDefaultFlag(isDefault bool)
}
