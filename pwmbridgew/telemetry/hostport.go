package telemetry

import "errors"

// SplitHostPort splits a host:port string into separate host and port components.
// The last colon separates the port so bracket-less IPv6 hosts still work.
func SplitHostPort(addr string) (host, port string, err error) {
	colonIdx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			colonIdx = i
			break
		}
	}
	if colonIdx == -1 {
		return "", "", errors.New("missing port in address")
	}

	host = addr[:colonIdx]
	port = addr[colonIdx+1:]
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	if host == "" {
		return "", "", errors.New("empty host")
	}
	if port == "" {
		return "", "", errors.New("empty port")
	}
	return host, port, nil
}

// ParsePort converts a port string to uint16.
// Returns 0 if parsing fails or the value does not fit.
func ParsePort(portStr string) uint16 {
	var port uint32
	for i := 0; i < len(portStr); i++ {
		if portStr[i] < '0' || portStr[i] > '9' {
			return 0
		}
		port = port*10 + uint32(portStr[i]-'0')
		if port > 65535 {
			return 0
		}
	}
	return uint16(port)
}
