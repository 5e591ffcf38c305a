package session

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// ResolveID picks the session identity for a chat call: an explicit token,
// else the user name, else the caller's host bucketed by minute. The last
// form only slows trivial abuse; it is not an access control.
func ResolveID(token, userName, remoteAddr string, now time.Time) string {
	if t := strings.TrimSpace(token); t != "" {
		return t
	}
	if u := strings.TrimSpace(userName); u != "" {
		return "user:" + u
	}
	host := strings.TrimSpace(remoteAddr)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host + ":" + strconv.FormatInt(now.Unix()/60, 10)
}
