package dispatcher

import "errors"

var (
	ErrUnsupportedContent = errors.New("unsupported content")
	ErrMediaUnresolved    = errors.New("media unresolved")
	ErrPersistence        = errors.New("failed to persist analysis")
	ErrNotify             = errors.New("failed to notify sender")

	ErrQueueFull  = errors.New("dispatch queue is full")
	ErrPoolClosed = errors.New("dispatch pool is closed")
)
