//go:build linux

package reactor

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// resolveIPv4 parses a dotted-quad or "" (meaning any address) into the
// 4-byte form unix.SockaddrInet4 wants.
func resolveIPv4(host string) net.IP {
	if host == "" || host == "0.0.0.0" {
		return net.IPv4zero.To4()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return net.IPv4zero.To4()
	}
	return ip.To4()
}

// doAccept implements spec §4.B: repeatedly accept until the listening
// socket reports no pending connection, registering a fresh
// HttpAttachment for each. Grounded on gotcp-epoll's acceptAction loop
// (unix.Accept until EAGAIN/EWOULDBLOCK).
func (l *Loop) doAccept() {
	for {
		fd, sa, err := unix.Accept(l.listenFd)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
				l.log.Printf("reactor: accept failed, continuing: %v", err)
			}
			return
		}

		if err := unix.SetNonblock(fd, true); err != nil {
			l.log.Printf("reactor: setnonblock on accepted fd failed: %v", err)
			unix.Close(fd)
			continue
		}
		unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

		atta := newHTTPAttachment(l.cfg.MaxBodySize, l.cfg.MaxLineSize)
		atta.remoteAddr = formatSockaddr(sa)

		key := l.registerKey(fd, atta)
		if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, fd,
			&unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}); err != nil {
			l.log.Printf("reactor: epoll_ctl add failed: %v", err)
			l.unregisterKey(fd)
			unix.Close(fd)
			continue
		}
		key.interest = interestRead

		if l.metrics != nil {
			l.metrics.Set("connections_accepted_total", l.nextAcceptedCount())
		}
	}
}

func formatSockaddr(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%x]:%d", a.Addr, a.Port)
	default:
		return ""
	}
}

func (l *Loop) nextAcceptedCount() int64 {
	snap := l.metrics.GetSnapshot()
	n, _ := snap["connections_accepted_total"].(int64)
	return n + 1
}
