package service_test

import "time"

const (
	testWaitTimeout = 2 * time.Second
	testWaitTick    = 5 * time.Millisecond
)
