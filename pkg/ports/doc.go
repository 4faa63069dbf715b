/*
Package ports defines the driven ports (interfaces) of the workflow orchestrator.

These interfaces decouple the workflow core from the AR engine, the device, the
clock and the storage backends, so that each can be replaced by an adapter or a test
double.

# Key Interfaces

  - Engine: the external AR engine; fire-and-forget commands plus an event subscription.
  - EngineProvider: opens one Engine per workflow family.
  - DeviceCapabilities: answers whether the device supports scene reconstruction.
  - Clock: time source and single-shot timers.
  - SnapshotStore: persists session snapshots for inspection.
  - CooldownLock: a lock that expires on its own, used to serialize tab switches.
*/
package ports
