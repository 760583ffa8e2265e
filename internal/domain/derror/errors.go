package derror

import "errors"

var (
	ErrUnknownAnimal       = errors.New("unknown animal type")
	ErrNotSubscribed       = errors.New("animal is not subscribed")
	ErrStreamNotOpened     = errors.New("stream is not opened")
	ErrRateLimited         = errors.New("too many requests")
	ErrDetectorUnavailable = errors.New("detector is not configured")
)
