package indexfile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/janelia-flyem/subvol/subvol"
)

// Format is an encoding of an index file.
type Format uint8

const (
	JSON Format = iota
	Binary
	ASCII
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	default:
		return fmt.Sprintf("unknown format %d", uint8(f))
	}
}

// Ext returns the conventional file extension of the format.
func (f Format) Ext() string {
	switch f {
	case Binary:
		return ".bin"
	case ASCII:
		return ".txt"
	default:
		return ".json"
	}
}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return JSON, nil
	case "binary", "bin":
		return Binary, nil
	case "ascii", "txt", "text":
		return ASCII, nil
	}
	return JSON, &subvol.ConfigError{Field: "output format", Value: name, Msg: "must be json, binary or ascii"}
}

// FormatFromPath guesses the format of an index from its file extension, defaulting
// to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return Binary
	case ".txt":
		return ASCII
	}
	return JSON
}

// Encode returns the full encoding of idx.  The compression only applies to the binary
// format.
func Encode(idx *IndexFile, format Format, compress subvol.Compression) ([]byte, error) {
	switch format {
	case JSON:
		return encodeJSON(idx)
	case Binary:
		return encodeBinary(idx, compress)
	case ASCII:
		var buf bytes.Buffer
		if err := WriteASCII(&buf, idx); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, &subvol.ConfigError{Field: "output format", Value: format, Msg: "unsupported"}
}

// Decode parses an encoded index, detecting binary indices by their magic header.  The
// name is used in error messages.  ASCII indices cannot be decoded.
func Decode(data []byte, name string) (*IndexFile, error) {
	if bytes.HasPrefix(data, []byte(binaryMagic)) {
		return decodeBinary(data, name)
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &subvol.FormatError{Path: name, Msg: "not a json or binary index"}
	}
	return decodeJSON(trimmed, name)
}
