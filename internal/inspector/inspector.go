// Package inspector is a supplemental, non-core observability feature: it
// tees a copy of every frame crossing the gateway onto a pub/sub topic so a
// debug client can watch live traffic, grounded on the original ui/inspector
// module and on the teacher pack's util/websocket command/message protocol.
package inspector

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
)

// Direction identifies which way a Sample travelled.
type Direction int

const (
	// Inbound is serial -> TCP clients.
	Inbound Direction = iota
	// Outbound is a TCP client -> serial; From names the originating client.
	Outbound
)

// Tag pairs a Direction with the originating client address for Outbound
// samples (zero value for Inbound).
type Tag struct {
	Dir  Direction
	From net.Addr
}

func (t Tag) String() string {
	if t.Dir == Inbound {
		return "inbound"
	}
	if t.From == nil {
		return "outbound"
	}
	return fmt.Sprintf("outbound(%s)", t.From)
}

// Sample is one observed chunk of traffic.
type Sample struct {
	Tag  Tag
	Data []byte
}

// DumpFormat selects how Dump renders a Sample's bytes.
type DumpFormat int

const (
	DumpHex DumpFormat = iota
	DumpAscii
	DumpDec
)

// Dump renders data in the requested format, one of the three the original
// CLI inspector supported.
func Dump(data []byte, format DumpFormat) string {
	switch format {
	case DumpAscii:
		var b strings.Builder
		for _, c := range data {
			if c >= 0x20 && c < 0x7f {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
		return b.String()
	case DumpDec:
		parts := make([]string, len(data))
		for i, c := range data {
			parts[i] = fmt.Sprintf("%d", c)
		}
		return strings.Join(parts, " ")
	default:
		return hex.EncodeToString(data)
	}
}
