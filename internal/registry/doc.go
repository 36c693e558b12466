// Package registry is the relay's identity registry: the durable binding
// between field devices and the chat operators who receive their events.
//
// # Model
//
// Each binding is stored twice, device→operator and operator→device, and
// both directions are written in one transaction. Registration is last write
// wins on either side: binding a device that another operator held takes it
// away from them, and binding a second device to an operator releases the
// first. A third keyspace records operators that have asked to register and
// are expected to send a device code next.
//
//	reg := registry.New(registry.NewSQLiteStore(db.DB))
//	reg.SetLogger(log)
//
//	res, err := reg.Register(ctx, "ESP_12345678", "424242")
//	op, err := reg.LookupEndpoint(ctx, "ESP_12345678")
//
// # Stores
//
//   - MemoryStore: tests and throwaway deployments
//   - SQLiteStore: single-instance deployments (table created by migrations)
//   - PostgresStore: shared registry for several relay instances
//
// The registration code is a bearer token of convenience: anyone who knows a
// device's code can claim it.
package registry
