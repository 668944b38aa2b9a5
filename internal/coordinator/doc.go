// Package coordinator tracks subtask execution reported by the external
// runner and enforces per-subtask deadlines. The event-ingestion path and
// the watchdog's timer-firing path are the only two concurrent contexts;
// each shared field is guarded by a single mutex, and the watchdog's
// explicit state machine guarantees at most one delivered firing per arm.
package coordinator
