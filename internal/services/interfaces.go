package services

// Entity is the constraint satisfied by pointers to every managed record.
// Each record has a store-generated key and an optimistic concurrency
// version.
type Entity[T any] interface {
	*T
	GetID() uint
	SetID(id uint)
	CurrentVersion() uint
	SetVersion(v uint)
}
