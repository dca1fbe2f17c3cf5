// Package device implements the device inventory: lifecycle rules, partial
// updates, filtered and paginated listing, and persistence.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                          Device Service                           │
//	│                                                                   │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌─────────────┐  │
//	│  │     Service      │    │      Policy      │    │    Store    │  │
//	│  │   (service.go)   │───▶│ (resilience.go)  │───▶│(repository) │  │
//	│  │                  │    │                  │    │             │  │
//	│  │ • Update rules   │    │ • Timeout        │    │ • SQLite    │  │
//	│  │ • Create defaults│    │ • Backoff retry  │    │ • Postgres  │  │
//	│  │ • Typed errors   │    │ • Breaker        │    │             │  │
//	│  └──────────────────┘    └──────────────────┘    └─────────────┘  │
//	│           │                                                       │
//	└───────────│───────────────────────────────────────────────────────┘
//	            ▼
//	┌──────────────────────┐   ┌──────────────────────┐
//	│  HistoryRepository   │   │      EventSink       │
//	│  (state transitions) │   │  (MQTT, InfluxDB)    │
//	└──────────────────────┘   └──────────────────────┘
//
// # Lifecycle
//
// A device is created AVAILABLE. Its state may move freely between
// AVAILABLE, IN_USE and INACTIVE. While IN_USE its name and brand are
// frozen, and only AVAILABLE devices can be deleted.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	svc := device.NewService(repo, device.NewResiliencePolicy(device.DefaultResilienceOptions(), log))
//	svc.SetLogger(log)
//
//	d, err := svc.Create(ctx, "iPhone 15", "Apple")
//	if err != nil {
//	    return err
//	}
//
//	_, err = svc.Update(ctx, d.ID, device.Patch{State: device.Some(device.StateInUse)})
//	if errors.Is(err, device.ErrUpdate) {
//	    // rejected
//	}
//
// # Errors
//
// Every Service error wraps exactly one of ErrValidation, ErrNotFound,
// ErrUpdate, ErrDeletion or ErrStoreUnavailable.
package device
