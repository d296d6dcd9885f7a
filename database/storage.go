package database

// Storage is the persistence boundary consumed by the router and app
// bootstrap. The concrete backing store is an implementation detail; the
// engine must not assume one.
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	GetDB() interface{}
}
