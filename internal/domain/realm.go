package domain

// Realm partitions customer sessions from admin sessions.
type Realm string

const (
	RealmCustomer Realm = "CUSTOMER"
	RealmAdmin    Realm = "ADMIN"
)

// Valid reports whether the realm is one of the known values.
func (r Realm) Valid() bool {
	return r == RealmCustomer || r == RealmAdmin
}
