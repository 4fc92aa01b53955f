package embedding

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format is the on-disk layout of a word2vec artifact.
type Format string

const (
	// FormatText is the word2vec text layout: optional "count dim" header, then "word v1 ... vD" per line.
	FormatText Format = "text"
	// FormatBinary is the word2vec binary layout: "count dim\n", then word, a space and dim little-endian float32s.
	FormatBinary Format = "binary"
)

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatBinary:
		return FormatBinary, nil
	}
	return "", fmt.Errorf("unknown embedding format %q", s)
}

// LoadFile reads a word2vec artifact from a local path. Files ending in .gz or .zst are decompressed.
func LoadFile(path string, format Format) (*MemoryTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embedding artifact: %w", err)
	}
	defer f.Close()
	return Load(f, path, format)
}

// Load reads a word2vec artifact. name is only used to detect compression from its extension.
func Load(r io.Reader, name string, format Format) (*MemoryTable, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	br := bufio.NewReaderSize(r, 1<<20)
	var (
		vectors map[string][]float32
		dim     int
		err     error
	)
	switch format {
	case FormatBinary:
		vectors, dim, err = readBinary(br)
	case FormatText, "":
		vectors, dim, err = readText(br)
	default:
		return nil, fmt.Errorf("unknown embedding format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyTable
	}
	return &MemoryTable{dim: dim, vectors: vectors}, nil
}

func readText(br *bufio.Reader) (map[string][]float32, int, error) {
	vectors := make(map[string][]float32)
	dim := 0
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read embedding line %d: %w", lineNo+1, err)
		}
		eof := errors.Is(err, io.EOF)
		lineNo++
		fields := strings.Fields(line)
		if len(fields) > 0 {
			if lineNo == 1 && isHeader(fields) {
				dim, _ = strconv.Atoi(fields[1])
			} else {
				word := fields[0]
				if dim == 0 {
					dim = len(fields) - 1
				}
				if len(fields)-1 != dim || dim == 0 {
					return nil, 0, &DimensionError{Word: word, Got: len(fields) - 1, Expected: dim}
				}
				if _, dup := vectors[word]; dup {
					return nil, 0, fmt.Errorf("duplicate word %q on line %d", word, lineNo)
				}
				vec := make([]float32, dim)
				for i, f := range fields[1:] {
					v, perr := strconv.ParseFloat(f, 32)
					if perr != nil {
						return nil, 0, fmt.Errorf("parse value %d of %q on line %d: %w", i, word, lineNo, perr)
					}
					vec[i] = float32(v)
				}
				vectors[word] = vec
			}
		}
		if eof {
			break
		}
	}
	return vectors, dim, nil
}

func isHeader(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	_, err1 := strconv.Atoi(fields[0])
	_, err2 := strconv.Atoi(fields[1])
	return err1 == nil && err2 == nil
}

func readBinary(br *bufio.Reader) (map[string][]float32, int, error) {
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, 0, fmt.Errorf("read binary header: %w", err)
	}
	fields := strings.Fields(header)
	if !isHeader(fields) {
		return nil, 0, fmt.Errorf("malformed binary header %q", strings.TrimSpace(header))
	}
	count, _ := strconv.Atoi(fields[0])
	dim, _ := strconv.Atoi(fields[1])
	if dim <= 0 {
		return nil, 0, fmt.Errorf("invalid embedding dimension %d", dim)
	}

	vectors := make(map[string][]float32, count)
	buf := make([]byte, 4*dim)
	for i := 0; i < count; i++ {
		word, err := readBinaryWord(br)
		if err != nil {
			return nil, 0, fmt.Errorf("read word %d: %w", i, err)
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, 0, fmt.Errorf("read vector of %q: %w", word, err)
		}
		if _, dup := vectors[word]; dup {
			return nil, 0, fmt.Errorf("duplicate word %q at entry %d", word, i)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4 : (j+1)*4]))
		}
		vectors[word] = vec
	}
	return vectors, dim, nil
}

// readBinaryWord reads bytes up to the next space, skipping the newline some writers emit after each vector.
func readBinaryWord(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == ' ' {
			break
		}
		if b == '\n' && sb.Len() == 0 {
			continue
		}
		sb.WriteByte(b)
	}
	if sb.Len() == 0 {
		return "", errors.New("empty word")
	}
	return sb.String(), nil
}
