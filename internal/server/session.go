package server

import (
	"log/slog"
	"net"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

// visitorID names the preference bucket of a session: the public key
// fingerprint when the client offered one, else the remote address.
func visitorID(key ssh.PublicKey, addr net.Addr) string {
	if key != nil {
		return "key:" + gossh.FingerprintSHA256(key)
	}
	return "ip:" + remoteIP(addr)
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// geolocatable reports whether ip is worth sending to the lookup service.
func geolocatable(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified() &&
		!parsed.IsLinkLocalUnicast()
}

// LoggingMiddleware logs each session's start and end.
func LoggingMiddleware(logger *slog.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			start := time.Now()
			pty, _, hasPty := s.Pty()
			logger.Info("session started",
				"user", s.User(),
				"remote_ip", remoteIP(s.RemoteAddr()),
				"visitor", visitorID(s.PublicKey(), s.RemoteAddr()),
				"term", pty.Term,
				"pty", hasPty,
				"width", pty.Window.Width,
				"height", pty.Window.Height)

			next(s)

			logger.Info("session ended",
				"user", s.User(),
				"remote_ip", remoteIP(s.RemoteAddr()),
				"duration", time.Since(start).Round(time.Millisecond))
		}
	}
}
