// Package scheduler keeps one timer per persisted schedule and runs each due
// occurrence once.
//
// Every mutation is persisted before timers change. Timer callbacks carry the
// registration sequence they were created with, so a callback that lost a race
// with Set, Cancel or Reset does nothing.
//
// Locking: Service.mu guards the timer map and is taken before the store lock.
// Results are executed without holding Service.mu.
package scheduler
