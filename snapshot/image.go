// file: jsbridge/snapshot/image.go
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

//---------------------
// FORMAT
//---------------------

// Magic identifies an encoded image.
var Magic = [4]byte{'J', 'S', 'B', 'I'}

// Version is the image layout written by Encode.
const Version uint32 = 1

const headerSize = 8 // magic(4) + version(4)

var (
	ErrBadMagic  = errors.New("snapshot: not an image (bad magic)")
	ErrVersion   = errors.New("snapshot: unsupported image version")
	ErrTruncated = errors.New("snapshot: image truncated")
)

var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: cbor enc mode: %v", err))
	}
	encMode = em
}

//---------------------
// TYPES
//---------------------

// Script is one evaluation unit replayed on restore.
type Script struct {
	Name   string `cbor:"1,keyasint"`
	Source string `cbor:"2,keyasint"`
}

// Image is a captured runtime: the scripts that built it and its blob arena.
type Image struct {
	Version uint32    `cbor:"1,keyasint"`
	Created time.Time `cbor:"2,keyasint"`
	Scripts []Script  `cbor:"3,keyasint,omitempty"`
	Blobs   []Blob    `cbor:"4,keyasint,omitempty"`
}

// Arena rebuilds the blob arena. Blob bytes are copied verbatim.
func (img *Image) Arena() (*Arena, error) {
	a := NewArena()
	for _, b := range img.Blobs {
		if err := a.Put(b.ID, b.Data); err != nil {
			return nil, err
		}
	}
	return a, nil
}

//---------------------
// ENCODING
//---------------------

// Encode writes magic, big-endian version and the canonical CBOR body.
func Encode(img *Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("snapshot: nil image")
	}
	v := img.Version
	if v == 0 {
		v = Version
	}
	body := *img
	body.Version = v

	payload, err := encMode.Marshal(&body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(payload))
	buf.Write(Magic[:])
	_ = binary.Write(&buf, binary.BigEndian, v)
	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode parses an encoded image.
func Decode(data []byte) (*Image, error) {
	if len(data) < headerSize {
		if len(data) >= 4 && !bytes.Equal(data[:4], Magic[:]) {
			return nil, ErrBadMagic
		}
		return nil, ErrTruncated
	}
	if !bytes.Equal(data[:4], Magic[:]) {
		return nil, ErrBadMagic
	}
	v := binary.BigEndian.Uint32(data[4:headerSize])
	if v == 0 || v > Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	var img Image
	if err := cbor.Unmarshal(data[headerSize:], &img); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	img.Version = v
	if !img.Created.IsZero() {
		img.Created = img.Created.UTC()
	}
	return &img, nil
}
