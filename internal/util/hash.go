// Package util provides shared utility functions.
package util

import (
	"hash/fnv"

	"github.com/1ureka/rtno/internal/protocol"
)

// AddressFromName derives a link address from an arbitrary name such as a
// host name. Names of at most four printable bytes are used as is, so "UART"
// stays "UART"; longer names are hashed. The hash is used solely for
// identification and does not need to be reversible.
func AddressFromName(name string) protocol.Address {
	if len(name) > 0 && len(name) <= protocol.AddressSize {
		return protocol.AddressFromString(name)
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	sum := h.Sum32()
	return protocol.Address{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
}
