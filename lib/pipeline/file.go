package pipeline

/* file.go contains the on-disk format shared by photon samples and event
lists: a small fixed-width header followed by named, zstd-compressed blocks.
Blocks may have different lengths (a photon-energy block is longer than the
per-cell blocks), so each block records its own element count. */

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/zstd"
)

const (
	// MagicNumber is an arbitrary number at the start of all xphoton files
	// which should help identify when the code is run on something else by
	// accident.
	MagicNumber = 0x0f07c0de
	// ReverseMagicNumber is the magic number if read on a machine with
	// flipped endianness.
	ReverseMagicNumber = 0xdec0070f
	Version            = 1

	compressionLevel = 1
)

// fileHeader is the fixed-width part of the header, shared by sample and
// event files.
type fileHeader struct {
	// N is the number of cells/particles (sample files) or events (event
	// files).
	N int64
	// Redshift, Area, and Exposure record the generation parameters, so
	// downstream steps don't need them re-stated.
	Redshift, Area, Exposure float64
	// SkyRA and SkyDec are the sky center in degrees. Zero in sample
	// files, which haven't been projected yet.
	SkyRA, SkyDec float64
}

// block is one named, typed array. The supported type strings are "f64"
// ([]float64), "u32" ([]uint32), and "v64" ([][3]float64).
type block struct {
	name, typ string
	data      interface{}
}

func blockOf(name string, data interface{}) (block, error) {
	switch data.(type) {
	case []float64:
		return block{name, "f64", data}, nil
	case []uint32:
		return block{name, "u32", data}, nil
	case [][3]float64:
		return block{name, "v64", data}, nil
	}
	return block{}, fmt.Errorf("Internal error: the block '%s' has an "+
		"unsupported array type, %T.", name, data)
}

func (b *block) count() int64 {
	switch x := b.data.(type) {
	case []float64:
		return int64(len(x))
	case []uint32:
		return int64(len(x))
	case [][3]float64:
		return int64(len(x))
	}
	panic(fmt.Sprintf("Internal error: unrecognized block type, '%s'", b.typ))
}

func emptyArray(typ string, n int64) (interface{}, error) {
	switch typ {
	case "f64":
		return make([]float64, n), nil
	case "u32":
		return make([]uint32, n), nil
	case "v64":
		return make([][3]float64, n), nil
	}
	return nil, fmt.Errorf("The block type '%s' isn't recognized. This "+
		"file was probably written by a newer version of xphoton.", typ)
}

// elemSize returns the encoded width of one element of a block type in
// bytes.
func elemSize(typ string) (int64, error) {
	switch typ {
	case "f64":
		return 8, nil
	case "u32":
		return 4, nil
	case "v64":
		return 24, nil
	}
	return 0, fmt.Errorf("The block type '%s' isn't recognized. This "+
		"file was probably written by a newer version of xphoton.", typ)
}

// writeBlockFile writes a header, the name and run ID strings, and the
// given blocks to fname in little-endian order.
func writeBlockFile(
	fname string, hd *fileHeader, name, runID string, blocks []block,
) error {
	order := binary.ByteOrder(binary.LittleEndian)

	// Compress everything up front so the navigation arrays can be written
	// before the data.
	comp := make([][]byte, len(blocks))
	counts := make([]int64, len(blocks))
	for i := range blocks {
		raw := &bytes.Buffer{}
		if err := binary.Write(raw, order, blocks[i].data); err != nil {
			return err
		}
		c, err := zstd.CompressLevel(nil, raw.Bytes(), compressionLevel)
		if err != nil {
			return fmt.Errorf("The block '%s' could not be compressed: %s",
				blocks[i].name, err.Error())
		}
		comp[i] = c
		counts[i] = blocks[i].count()
	}

	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer fp.Close()

	if err := binary.Write(fp, order, uint32(MagicNumber)); err != nil {
		return err
	}
	if err := binary.Write(fp, order, uint32(Version)); err != nil {
		return err
	}
	if err := binary.Write(fp, order, hd); err != nil {
		return err
	}
	if err := writeString(fp, order, name); err != nil {
		return err
	}
	if err := writeString(fp, order, runID); err != nil {
		return err
	}

	if err := binary.Write(fp, order, uint32(len(blocks))); err != nil {
		return err
	}
	for i := range blocks {
		if err := writeString(fp, order, blocks[i].name); err != nil {
			return err
		}
		if _, err := fp.Write([]byte(blocks[i].typ)); err != nil {
			return err
		}
	}

	sizes := make([]int64, len(blocks))
	for i := range comp {
		sizes[i] = int64(len(comp[i]))
	}
	if err := binary.Write(fp, order, counts); err != nil {
		return err
	}
	if err := binary.Write(fp, order, sizes); err != nil {
		return err
	}

	for i := range comp {
		if _, err := fp.Write(comp[i]); err != nil {
			return err
		}
	}
	return nil
}

// readBlockFile reads a file written by writeBlockFile and returns the
// header, the name and run ID strings, and the blocks keyed by name.
func readBlockFile(
	fname string,
) (*fileHeader, string, string, map[string]interface{}, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, "", "", nil, err
	}
	defer fp.Close()

	// Every length read out of the file is checked against the file's size
	// before it drives an allocation, so a corrupt or truncated header
	// fails with a diagnostic instead of a giant make.
	stat, err := fp.Stat()
	if err != nil {
		return nil, "", "", nil, err
	}
	fileSize := stat.Size()

	order, err := checkFile(fname, fp)
	if err != nil {
		return nil, "", "", nil, err
	}

	hd := &fileHeader{}
	if err := binary.Read(fp, order, hd); err != nil {
		return nil, "", "", nil, err
	}
	name, err := readString(fp, order, fileSize)
	if err != nil {
		return nil, "", "", nil, err
	}
	runID, err := readString(fp, order, fileSize)
	if err != nil {
		return nil, "", "", nil, err
	}

	var nBlocks uint32
	if err := binary.Read(fp, order, &nBlocks); err != nil {
		return nil, "", "", nil, err
	}
	// Each block needs a name length, a type, and navigation entries, so a
	// block count beyond the file size is corruption.
	if int64(nBlocks) > fileSize {
		return nil, "", "", nil, fmt.Errorf("The file %s claims to hold %d "+
			"blocks, but is only %d bytes long. The file is corrupted.",
			fname, nBlocks, fileSize)
	}
	names := make([]string, nBlocks)
	types := make([]string, nBlocks)
	for i := range names {
		if names[i], err = readString(fp, order, fileSize); err != nil {
			return nil, "", "", nil, err
		}
		b := make([]byte, 3)
		if _, err := io.ReadFull(fp, b); err != nil {
			return nil, "", "", nil, err
		}
		types[i] = string(b)
	}

	counts := make([]int64, nBlocks)
	sizes := make([]int64, nBlocks)
	if err := binary.Read(fp, order, counts); err != nil {
		return nil, "", "", nil, err
	}
	if err := binary.Read(fp, order, sizes); err != nil {
		return nil, "", "", nil, err
	}
	for i := range sizes {
		if counts[i] < 0 || sizes[i] < 0 || sizes[i] > fileSize {
			return nil, "", "", nil, fmt.Errorf("The block '%s' in %s "+
				"claims %d elements in %d compressed bytes, but the whole "+
				"file is only %d bytes long. The file is corrupted.",
				names[i], fname, counts[i], sizes[i], fileSize)
		}
	}

	blocks := map[string]interface{}{}
	for i := range names {
		comp := make([]byte, sizes[i])
		if _, err := io.ReadFull(fp, comp); err != nil {
			return nil, "", "", nil, err
		}
		raw, err := zstd.Decompress(nil, comp)
		if err != nil {
			return nil, "", "", nil, fmt.Errorf("The block '%s' in %s "+
				"could not be decompressed: %s", names[i], fname, err.Error())
		}
		width, err := elemSize(types[i])
		if err != nil {
			return nil, "", "", nil, err
		}
		// Guard the multiplication below against overflow.
		if counts[i] > int64(len(raw)) {
			return nil, "", "", nil, fmt.Errorf("The block '%s' in %s "+
				"claims %d elements, but decompressed to only %d bytes. "+
				"The file is corrupted.", names[i], fname, counts[i],
				len(raw))
		}
		if int64(len(raw)) != counts[i]*width {
			return nil, "", "", nil, fmt.Errorf("The block '%s' in %s "+
				"decompressed to %d bytes, but its %d elements need %d. "+
				"The file is corrupted.", names[i], fname, len(raw),
				counts[i], counts[i]*width)
		}
		data, err := emptyArray(types[i], counts[i])
		if err != nil {
			return nil, "", "", nil, err
		}
		if err := binary.Read(bytes.NewReader(raw), order, data); err != nil {
			return nil, "", "", nil, err
		}
		blocks[names[i]] = data
	}

	return hd, name, runID, blocks, nil
}

// checkFile reads in the file's magic number and version number and makes
// sure xphoton can actually read it. If it can, the byte order is returned.
// Otherwise an error is returned.
func checkFile(fname string, f *os.File) (binary.ByteOrder, error) {
	var magicNumber, version uint32

	order := binary.ByteOrder(binary.LittleEndian)
	err := binary.Read(f, order, &magicNumber)
	if err != nil {
		return nil, err
	}

	switch magicNumber {
	case MagicNumber:
	case ReverseMagicNumber:
		order = binary.BigEndian
	default:
		return order, fmt.Errorf("%s is not an xphoton file. All xphoton "+
			"files begin with either the 32-bit integer %x or %x. This file "+
			"begins with %x.", fname, uint32(MagicNumber),
			uint32(ReverseMagicNumber), magicNumber)
	}

	err = binary.Read(f, order, &version)
	if err != nil {
		return nil, err
	}
	if version > Version {
		return order, fmt.Errorf("The file %s was created with xphoton "+
			"file version %d, but this build only reads up to version %d.",
			fname, version, Version)
	}

	return order, nil
}

func writeString(f io.Writer, order binary.ByteOrder, s string) error {
	if err := binary.Write(f, order, uint32(len(s))); err != nil {
		return err
	}
	_, err := f.Write([]byte(s))
	return err
}

// readString reads a length-prefixed string, rejecting lengths that can't
// fit in a file of max bytes.
func readString(f io.Reader, order binary.ByteOrder, max int64) (string, error) {
	var n uint32
	if err := binary.Read(f, order, &n); err != nil {
		return "", err
	}
	if int64(n) > max {
		return "", fmt.Errorf("A string in the file claims to be %d bytes "+
			"long, but the whole file is only %d bytes long. The file is "+
			"corrupted.", n, max)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(f, b); err != nil {
		return "", err
	}
	return string(b), nil
}
