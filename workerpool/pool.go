package workerpool

import "errors"

// ErrPoolClosed is returned by Submit once Close has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")
