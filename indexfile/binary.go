package indexfile

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/janelia-flyem/subvol/subvol"
)

// Binary indices start with an 8 byte header: the magic, the little-endian uint16 major
// format version and two reserved bytes.  The header is followed by a serialized
// MessagePack body (see subvol.SerializeData).
const (
	binaryMagic      = "SVIX"
	binaryHeaderSize = 8
)

func encodeBinary(idx *IndexFile, compress subvol.Compression) ([]byte, error) {
	body, err := idx.MarshalMsg(nil)
	if err != nil {
		return nil, fmt.Errorf("unable to encode index body: %w", err)
	}
	payload, err := subvol.SerializeData(body, compress, subvol.CRC32)
	if err != nil {
		return nil, err
	}
	out := make([]byte, binaryHeaderSize, binaryHeaderSize+len(payload))
	copy(out, binaryMagic)
	binary.LittleEndian.PutUint16(out[4:6], uint16(formatVersion.Major))
	return append(out, payload...), nil
}

func decodeBinary(data []byte, name string) (*IndexFile, error) {
	if len(data) < binaryHeaderSize {
		return nil, &subvol.FormatError{Path: name, Msg: "truncated binary index header"}
	}
	if major := binary.LittleEndian.Uint16(data[4:6]); uint64(major) != formatVersion.Major {
		return nil, &subvol.FormatError{Path: name,
			Msg: fmt.Sprintf("binary index major version %d is not supported (want %d)", major, formatVersion.Major)}
	}
	body, _, err := subvol.DeserializeData(data[binaryHeaderSize:], true)
	if err != nil {
		return nil, &subvol.FormatError{Path: name, Msg: err.Error()}
	}
	idx := new(IndexFile)
	if _, err := idx.UnmarshalMsg(body); err != nil {
		return nil, &subvol.FormatError{Path: name, Msg: fmt.Sprintf("bad binary index body: %v", err)}
	}
	if err := checkVersion(idx.Version, name); err != nil {
		return nil, err
	}
	return idx, nil
}

func appendInt3(o []byte, p [3]int32) []byte {
	o = msgp.AppendArrayHeader(o, 3)
	for _, v := range p {
		o = msgp.AppendInt32(o, v)
	}
	return o
}

func readInt3(bts []byte) (p [3]int32, o []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		return
	}
	if sz != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: sz}
		return
	}
	for i := range p {
		if p[i], bts, err = msgp.ReadInt32Bytes(bts); err != nil {
			return
		}
	}
	o = bts
	return
}

func appendFloat3(o []byte, v [3]float64) []byte {
	o = msgp.AppendArrayHeader(o, 3)
	for _, f := range v {
		o = msgp.AppendFloat64(o, f)
	}
	return o
}

func readFloat3(bts []byte) (v [3]float64, o []byte, err error) {
	var sz uint32
	if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
		return
	}
	if sz != 3 {
		err = msgp.ArrayError{Wanted: 3, Got: sz}
		return
	}
	for i := range v {
		if v[i], bts, err = msgp.ReadFloat64Bytes(bts); err != nil {
			return
		}
	}
	o = bts
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *FileBlock) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 9)
	o = msgp.AppendString(o, "index")
	o = msgp.AppendUint64(o, z.Index)
	o = msgp.AppendString(o, "ijk")
	o = appendInt3(o, z.IJK)
	o = msgp.AppendString(o, "vox_dims")
	o = appendInt3(o, z.VoxDims)
	o = msgp.AppendString(o, "dims")
	o = appendFloat3(o, z.Dims)
	o = msgp.AppendString(o, "origin")
	o = appendFloat3(o, z.Origin)
	o = msgp.AppendString(o, "offset")
	o = msgp.AppendUint64(o, z.Offset)
	o = msgp.AppendString(o, "data_bytes")
	o = msgp.AppendUint64(o, z.DataBytes)
	o = msgp.AppendString(o, "rel")
	o = msgp.AppendFloat64(o, z.Relevance)
	o = msgp.AppendString(o, "empty")
	o = msgp.AppendBool(o, z.Empty)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *FileBlock) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var isz uint32
	if isz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return
	}
	for ; isz > 0; isz-- {
		if field, bts, err = msgp.ReadMapKeyZC(bts); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "index":
			z.Index, bts, err = msgp.ReadUint64Bytes(bts)
		case "ijk":
			z.IJK, bts, err = readInt3(bts)
		case "vox_dims":
			z.VoxDims, bts, err = readInt3(bts)
		case "dims":
			z.Dims, bts, err = readFloat3(bts)
		case "origin":
			z.Origin, bts, err = readFloat3(bts)
		case "offset":
			z.Offset, bts, err = msgp.ReadUint64Bytes(bts)
		case "data_bytes":
			z.DataBytes, bts, err = msgp.ReadUint64Bytes(bts)
		case "rel":
			z.Relevance, bts, err = msgp.ReadFloat64Bytes(bts)
		case "empty":
			z.Empty, bts, err = msgp.ReadBoolBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	o = bts
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *IndexFile) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 12)
	o = msgp.AppendString(o, "version")
	o = msgp.AppendString(o, z.Version)
	o = msgp.AppendString(o, "run_id")
	o = msgp.AppendString(o, z.RunID)
	o = msgp.AppendString(o, "created")
	o = msgp.AppendInt64(o, z.Created.UnixNano())
	o = msgp.AppendString(o, "world_dims")
	o = appendFloat3(o, z.WorldDims)

	o = msgp.AppendString(o, "vol_stats")
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "min")
	o = msgp.AppendFloat64(o, z.Stats.Min)
	o = msgp.AppendString(o, "max")
	o = msgp.AppendFloat64(o, z.Stats.Max)
	o = msgp.AppendString(o, "avg")
	o = msgp.AppendFloat64(o, z.Stats.Avg)
	o = msgp.AppendString(o, "tot")
	o = msgp.AppendFloat64(o, z.Stats.Total)

	o = msgp.AppendString(o, "volume")
	o = msgp.AppendMapHeader(o, 6)
	o = msgp.AppendString(o, "name")
	o = msgp.AppendString(o, z.Volume.Name)
	o = msgp.AppendString(o, "path")
	o = msgp.AppendString(o, z.Volume.Path)
	o = msgp.AppendString(o, "vox_dims")
	o = appendInt3(o, z.Volume.VoxDims)
	o = msgp.AppendString(o, "world_dims")
	o = appendFloat3(o, z.Volume.WorldDims)
	o = msgp.AppendString(o, "rov_min")
	o = msgp.AppendFloat64(o, z.Volume.RelevanceMin)
	o = msgp.AppendString(o, "rov_max")
	o = msgp.AppendFloat64(o, z.Volume.RelevanceMax)

	o = msgp.AppendString(o, "tr_func")
	o = msgp.AppendString(o, z.TransferFunction)
	o = msgp.AppendString(o, "dtype")
	o = msgp.AppendString(o, z.DataType.String())
	o = msgp.AppendString(o, "num_blocks")
	o = appendInt3(o, z.NumBlocks)
	o = msgp.AppendString(o, "blocks_extent")
	o = appendInt3(o, z.BlocksExtent)
	o = msgp.AppendString(o, "blocks")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Blocks)))
	for i := range z.Blocks {
		if o, err = z.Blocks[i].MarshalMsg(o); err != nil {
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *IndexFile) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	var isz uint32
	if isz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return
	}
	for ; isz > 0; isz-- {
		if field, bts, err = msgp.ReadMapKeyZC(bts); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "version":
			z.Version, bts, err = msgp.ReadStringBytes(bts)
		case "run_id":
			z.RunID, bts, err = msgp.ReadStringBytes(bts)
		case "created":
			var nsec int64
			if nsec, bts, err = msgp.ReadInt64Bytes(bts); err == nil {
				z.Created = time.Unix(0, nsec).UTC()
			}
		case "world_dims":
			z.WorldDims, bts, err = readFloat3(bts)
		case "vol_stats":
			bts, err = z.unmarshalStats(bts)
		case "volume":
			bts, err = z.unmarshalVolume(bts)
		case "tr_func":
			z.TransferFunction, bts, err = msgp.ReadStringBytes(bts)
		case "dtype":
			var name string
			if name, bts, err = msgp.ReadStringBytes(bts); err == nil {
				z.DataType, err = subvol.ParseDataType(name)
			}
		case "num_blocks":
			z.NumBlocks, bts, err = readInt3(bts)
		case "blocks_extent":
			z.BlocksExtent, bts, err = readInt3(bts)
		case "blocks":
			var sz uint32
			if sz, bts, err = msgp.ReadArrayHeaderBytes(bts); err != nil {
				return
			}
			z.Blocks = make([]FileBlock, sz)
			for i := range z.Blocks {
				if bts, err = z.Blocks[i].UnmarshalMsg(bts); err != nil {
					return
				}
			}
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	o = bts
	return
}

func (z *IndexFile) unmarshalStats(bts []byte) (o []byte, err error) {
	var field []byte
	var isz uint32
	if isz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return
	}
	for ; isz > 0; isz-- {
		if field, bts, err = msgp.ReadMapKeyZC(bts); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "min":
			z.Stats.Min, bts, err = msgp.ReadFloat64Bytes(bts)
		case "max":
			z.Stats.Max, bts, err = msgp.ReadFloat64Bytes(bts)
		case "avg":
			z.Stats.Avg, bts, err = msgp.ReadFloat64Bytes(bts)
		case "tot":
			z.Stats.Total, bts, err = msgp.ReadFloat64Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	o = bts
	return
}

func (z *IndexFile) unmarshalVolume(bts []byte) (o []byte, err error) {
	var field []byte
	var isz uint32
	if isz, bts, err = msgp.ReadMapHeaderBytes(bts); err != nil {
		return
	}
	for ; isz > 0; isz-- {
		if field, bts, err = msgp.ReadMapKeyZC(bts); err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "name":
			z.Volume.Name, bts, err = msgp.ReadStringBytes(bts)
		case "path":
			z.Volume.Path, bts, err = msgp.ReadStringBytes(bts)
		case "vox_dims":
			z.Volume.VoxDims, bts, err = readInt3(bts)
		case "world_dims":
			z.Volume.WorldDims, bts, err = readFloat3(bts)
		case "rov_min":
			z.Volume.RelevanceMin, bts, err = msgp.ReadFloat64Bytes(bts)
		case "rov_max":
			z.Volume.RelevanceMax, bts, err = msgp.ReadFloat64Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	o = bts
	return
}
