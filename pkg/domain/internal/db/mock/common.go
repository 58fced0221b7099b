package mocks

import "sync"

type CallLog[T any] []T

func (l CallLog[T]) Times() uint {
	return uint(len(l))
}

// Record appends a call under mu. Mock methods get invoked from pool
// workers, so the logs need guarding.
func Record[T any](mu *sync.Mutex, log *CallLog[T], call T) {
	mu.Lock()
	defer mu.Unlock()
	*log = append(*log, call)
}
