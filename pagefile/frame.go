package pagefile

import (
	"encoding/binary"

	"github.com/hupe1980/rstar/internal/hash"
	"github.com/hupe1980/rstar/node"
)

const (
	frameHeaderSize = 12

	// kindHeader tags the file header frame on page 0.
	kindHeader uint8 = 0xFF
)

// encodeFrame wraps raw into a checksummed, optionally compressed frame.
func encodeFrame(kind uint8, raw []byte, c Compression) ([]byte, error) {
	payload, used, err := compress(c, raw)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, frameHeaderSize+len(payload))
	frame[4] = byte(used)
	frame[5] = kind
	binary.LittleEndian.PutUint32(frame[8:], uint32(len(raw)))
	copy(frame[frameHeaderSize:], payload)
	binary.LittleEndian.PutUint32(frame[0:], hash.CRC32C(frame[4:]))
	return frame, nil
}

// decodeFrame verifies and unwraps a frame read from page id.
func decodeFrame(id node.PageID, frame []byte) (kind uint8, raw []byte, err error) {
	if len(frame) < frameHeaderSize {
		return 0, nil, corrupt(id, "short frame", nil)
	}
	if !hash.Verify(frame[4:], binary.LittleEndian.Uint32(frame[0:])) {
		return 0, nil, corrupt(id, "checksum mismatch", nil)
	}
	codec := Compression(frame[4])
	kind = frame[5]
	rawLen := int(binary.LittleEndian.Uint32(frame[8:]))

	raw, err = decompress(codec, frame[frameHeaderSize:], rawLen)
	if err != nil {
		return 0, nil, corrupt(id, "decompress "+codec.String(), err)
	}
	return kind, raw, nil
}
