package bridge

import "runtime"

// readMessage consumes bytes until a newline or until no byte has arrived for
// the read timeout. The newline is consumed but not returned. Every byte is
// parsed as it arrives; only the first msgBufSize bytes are kept for logging.
func (b *Bridge) readMessage() (msg []byte, value int32, ok bool) {
	msg = b.msg[:0]
	b.parser.reset()
	last := b.now()
	for {
		if b.port.Buffered() > 0 {
			c, err := b.port.ReadByte()
			if err == nil {
				last = b.now()
				if c == '\n' {
					break
				}
				b.parser.feed(c)
				if len(msg) < cap(msg) {
					msg = append(msg, c)
				}
				continue
			}
		}
		if b.now().Sub(last) >= b.timeout {
			break
		}
		runtime.Gosched()
	}
	b.msg = msg
	value, ok = b.parser.result()
	return msg, value, ok
}
