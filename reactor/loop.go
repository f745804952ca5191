//go:build linux

package reactor

import (
	"log"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/riftio/reactorhttp/api"
	"github.com/riftio/reactorhttp/bufpool"
	"github.com/riftio/reactorhttp/control"
	"github.com/riftio/reactorhttp/internal/wake"
)

// Loop is the single-threaded event reactor of spec §4.F: one OS thread
// owns the epoll instance, the listening socket, and the scratch buffer;
// every interest-op mutation happens here, per invariant 1.
type Loop struct {
	epfd      int
	listenFd  int
	wakeFd    int
	boundPort int

	cfg *Config
	log *log.Logger
	pool *bufpool.Pool
	metrics *control.MetricsRegistry

	pending *wake.Queue[*selectionKey]

	// keys maps fd -> selectionKey. Besides the loop, Stop, the
	// tracked_connections debug probe and closeKey (reached from tryWrite on
	// a handler thread) also read or modify it, so every access holds keysMu.
	keysMu sync.Mutex
	keys   map[int]*selectionKey

	scratch []byte

	stopCh   chan struct{}
	stoppedCh chan struct{}
}

func newLoop(cfg *Config) *Loop {
	return &Loop{
		cfg:      cfg,
		log:      cfg.Logger,
		pool:     cfg.BufferPool,
		metrics:  cfg.Metrics,
		pending:  newPendingWakeQueue(),
		keys:     make(map[int]*selectionKey),
		scratch:  make([]byte, defaultScratchSize),
		stopCh:   make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// start creates the epoll instance, the listening socket, and the wakeup
// eventfd, then spawns the reactor goroutine. Grounded on gotcp-epoll's
// InitEpoll (raw unix.Socket/Bind/Listen/EpollCtl sequence), generalized
// from edge-triggered to level-triggered per SPEC_FULL §4.B — one
// readiness notification must not be lost if the loop doesn't fully drain
// backlog or a socket's buffer in one pass.
func (l *Loop) start() error {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return err
	}
	l.epfd = epfd

	listenFd, err := l.listen(l.cfg.Host, l.cfg.Port)
	if err != nil {
		unix.Close(epfd)
		return err
	}
	l.listenFd = listenFd

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		unix.Close(listenFd)
		return err
	}
	l.wakeFd = wakeFd

	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, l.listenFd,
		&unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(l.listenFd)}); err != nil {
		return err
	}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, l.wakeFd,
		&unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(l.wakeFd)}); err != nil {
		return err
	}

	if l.cfg.Debug != nil {
		l.cfg.Debug.RegisterProbe("tracked_connections", func() any {
			l.keysMu.Lock()
			defer l.keysMu.Unlock()
			return len(l.keys)
		})
	}

	go l.run()
	return nil
}

func (l *Loop) listen(host string, port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}

	var addr unix.SockaddrInet4
	addr.Port = port
	ip := resolveIPv4(host)
	copy(addr.Addr[:], ip)

	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if sa, err := unix.Getsockname(fd); err == nil {
		if in4, ok := sa.(*unix.SockaddrInet4); ok {
			l.boundPort = in4.Port
		}
	}
	return fd, nil
}

// BoundPort returns the actual listening port, useful when Config.Port
// was 0 to request an ephemeral port from the kernel.
func (l *Loop) BoundPort() int { return l.boundPort }

// run is the body of spec §4.F's "each iteration" algorithm.
func (l *Loop) run() {
	defer close(l.stoppedCh)

	events := make([]unix.EpollEvent, l.cfg.EpollBatchSize)
	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		l.drainPending()

		n, err := unix.EpollWait(l.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			l.log.Printf("reactor: epoll_wait error, terminating loop: %v", err)
			return
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			switch fd {
			case l.wakeFd:
				l.drainWakeFd()
			case l.listenFd:
				l.doAccept()
			default:
				l.dispatch(fd, events[i].Events)
			}
		}
	}
}

func (l *Loop) dispatch(fd int, ev uint32) {
	key := l.lookupKey(fd)
	if key == nil || !key.isValid() {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				l.log.Printf("reactor: recovered panic in key dispatch: %v", r)
			}
		}()
		switch {
		case ev&(unix.EPOLLHUP|unix.EPOLLERR) != 0:
			l.closeKey(key, api.CloseAway)
		case ev&unix.EPOLLOUT != 0:
			l.doWrite(key)
		case ev&unix.EPOLLIN != 0:
			l.doRead(key)
		}
	}()
}

// drainPending implements spec §4.F step 1: drain the wake queue and arm
// write interest on every still-valid key.
func (l *Loop) drainPending() {
	l.pending.DrainInto(func(key *selectionKey) {
		if !key.isValid() {
			return
		}
		l.armWrite(key)
	})
}

func (l *Loop) drainWakeFd() {
	var buf [8]byte
	for {
		_, err := unix.Read(l.wakeFd, buf[:])
		if err != nil {
			return
		}
	}
}

// wake performs the "idempotent unblock of a blocked select" of spec
// §4.E: writing any nonzero value to an eventfd always wakes an
// EpollWait blocked on it, and concurrent writers coalesce into the
// kernel's internal counter.
func (l *Loop) wake() {
	one := [8]byte{1}
	unix.Write(l.wakeFd, one[:])
}

func (l *Loop) registerKey(fd int, atta *attachment) *selectionKey {
	key := newSelectionKey(fd, atta)
	atta.channel = &Channel{key: key, loop: l}
	l.keysMu.Lock()
	l.keys[fd] = key
	l.keysMu.Unlock()
	return key
}

func (l *Loop) lookupKey(fd int) *selectionKey {
	l.keysMu.Lock()
	defer l.keysMu.Unlock()
	return l.keys[fd]
}

func (l *Loop) unregisterKey(fd int) {
	l.keysMu.Lock()
	delete(l.keys, fd)
	l.keysMu.Unlock()
}

func (l *Loop) armRead(key *selectionKey) {
	key.interest = interestRead
	unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, key.fd,
		&unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(key.fd)})
}

func (l *Loop) armWrite(key *selectionKey) {
	key.interest = interestWrite
	unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, key.fd,
		&unix.EpollEvent{Events: unix.EPOLLOUT, Fd: int32(key.fd)})
}

// clearInterest is used while a response is pending per the resolved read
// loop open question (SPEC_FULL §4.C): the connection is registered with
// neither read nor write interest until tryWrite re-arms it.
func (l *Loop) clearInterest(key *selectionKey) {
	unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, key.fd,
		&unix.EpollEvent{Events: 0, Fd: int32(key.fd)})
}

// stop implements spec §5's stop(): close the listener, close every
// tracked socket, close the selector, notify the handler, interrupt the
// reactor thread.
func (l *Loop) stop() {
	close(l.stopCh)
	l.wake()
	<-l.stoppedCh

	l.keysMu.Lock()
	keys := make([]*selectionKey, 0, len(l.keys))
	for _, k := range l.keys {
		keys = append(keys, k)
	}
	l.keysMu.Unlock()

	for _, k := range keys {
		l.closeKey(k, statusForPhase(k.atta))
	}

	unix.Close(l.listenFd)
	unix.Close(l.wakeFd)
	unix.Close(l.epfd)

	l.cfg.Handler.Close()
}

func statusForPhase(a *attachment) int {
	if a.phase == PhaseHTTP {
		return api.CloseHTTP
	}
	return api.CloseNormal
}
