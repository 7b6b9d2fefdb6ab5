package pagefile

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the page payload codec.
type Compression uint8

const (
	// CompressionNone stores payloads verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 favors speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favors ratio.
	CompressionZSTD Compression = 2
	// CompressionSnappy is a middle ground.
	CompressionSnappy Compression = 3
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a codec name to its Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return 0, fmt.Errorf("pagefile: unknown compression %q", name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compress returns the encoded payload and the codec actually used. Payloads
// that do not shrink are stored uncompressed.
func compress(c Compression, raw []byte) ([]byte, Compression, error) {
	if c == CompressionNone || len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		out = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	case CompressionSnappy:
		out = snappy.Encode(nil, raw)
	default:
		return nil, 0, fmt.Errorf("pagefile: unknown compression %d", c)
	}

	if len(out) == 0 || len(out) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

var errSizeMismatch = errors.New("decompressed size mismatch")

func decompress(c Compression, data []byte, rawLen int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(data) != rawLen {
			return nil, errSizeMismatch
		}
		return data, nil
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, errSizeMismatch
		}
		return out, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, rawLen))
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, errSizeMismatch
		}
		return out, nil
	case CompressionSnappy:
		n, err := snappy.DecodedLen(data)
		if err != nil {
			return nil, err
		}
		if n != rawLen {
			return nil, errSizeMismatch
		}
		return snappy.Decode(make([]byte, n), data)
	default:
		return nil, fmt.Errorf("unknown codec %d", c)
	}
}
