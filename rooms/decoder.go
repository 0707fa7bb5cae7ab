package rooms

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// DecodeBatchData decodes a segment batch from the wire formats seen on
// MQTT topics:
//   - raw JSON (starts with '{')
//   - zlib-compressed JSON (CAD exporters batching large drawings)
func DecodeBatchData(data []byte) (*SegmentBatch, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	jsonBytes := data
	if data[0] != '{' {
		inflated, err := inflateZlib(data)
		if err != nil {
			return nil, fmt.Errorf("unknown payload format: not JSON or zlib-compressed")
		}
		jsonBytes = inflated
	}

	return ParseBatchJSON(jsonBytes)
}

// inflateZlib decompresses zlib-compressed data
func inflateZlib(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating zlib reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompressing zlib data: %w", err)
	}

	return decompressed, nil
}
