package pagefile

import (
	"bytes"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/goccy/go-json"
)

const (
	headerMagic   = "RSTARPF"
	headerVersion = 1
)

// header is the JSON document stored in page 0.
type header struct {
	Magic    string `json:"magic"`
	Version  int    `json:"version"`
	PageSize int    `json:"page_size"`
	NextPage uint32 `json:"next_page"`
	Free     []byte `json:"free,omitempty"`
	Meta     []byte `json:"meta,omitempty"`
}

func encodeHeader(pageSize int, next uint32, free *roaring.Bitmap, meta []byte) ([]byte, error) {
	h := header{
		Magic:    headerMagic,
		Version:  headerVersion,
		PageSize: pageSize,
		NextPage: next,
		Meta:     meta,
	}
	if !free.IsEmpty() {
		var buf bytes.Buffer
		if _, err := free.WriteTo(&buf); err != nil {
			return nil, err
		}
		h.Free = buf.Bytes()
	}
	return json.Marshal(h)
}

func decodeHeader(raw []byte) (header, *roaring.Bitmap, error) {
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, nil, err
	}
	if h.Magic != headerMagic {
		return h, nil, fmt.Errorf("bad magic %q", h.Magic)
	}
	if h.Version != headerVersion {
		return h, nil, fmt.Errorf("unsupported version %d", h.Version)
	}
	free := roaring.New()
	if len(h.Free) > 0 {
		if _, err := free.ReadFrom(bytes.NewReader(h.Free)); err != nil {
			return h, nil, fmt.Errorf("free list: %w", err)
		}
	}
	return h, free, nil
}
