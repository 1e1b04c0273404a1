package tensordata

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"k8s.io/klog/v2"
)

// External is the parsed external_data entry list of a tensor.
type External struct {
	Location string
	Offset   int64
	// Length is -1 when the entry is absent: the data runs to the end of the file.
	Length   int64
	Checksum string
}

// IsExternal reports whether t stores its payload outside the model file.
func IsExternal(t *onnx.TensorProto) bool {
	return t.GetDataLocation() == onnx.TensorProto_EXTERNAL
}

// ParseExternal reads the location, offset, length and checksum keys of t.
func ParseExternal(t *onnx.TensorProto) (*External, error) {
	ext := &External{Length: -1}
	for _, entry := range t.GetExternalData() {
		value := entry.GetValue()
		switch entry.GetKey() {
		case "location":
			ext.Location = value
		case "offset":
			if value != "" {
				offset, err := strconv.ParseInt(value, 10, 64)
				if err != nil || offset < 0 {
					return nil, errors.Errorf("invalid offset value: %s", value)
				}
				ext.Offset = offset
			}
		case "length":
			if value != "" {
				length, err := strconv.ParseInt(value, 10, 64)
				if err != nil || length < 0 {
					return nil, errors.Errorf("invalid length value: %s", value)
				}
				ext.Length = length
			}
		case "checksum":
			ext.Checksum = value
		default:
			return nil, errors.Errorf("unknown external data key %q", entry.GetKey())
		}
	}
	if ext.Location == "" {
		return nil, errors.New("external data location not specified")
	}
	return ext, nil
}

// Resolve returns the path of the data file relative to modelDir. The
// location must be relative and stay inside modelDir.
func (e *External) Resolve(modelDir string) (string, error) {
	if filepath.IsAbs(e.Location) || strings.HasPrefix(e.Location, "/") {
		return "", errors.Errorf("external data location %q must be a relative path", e.Location)
	}
	clean := filepath.Clean(filepath.FromSlash(e.Location))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("external data location %q escapes the model directory", e.Location)
	}
	return filepath.Join(modelDir, clean), nil
}

// Stat resolves the data file and checks that the referenced byte range lies
// inside it. It returns the resolved path and the length of the range.
func (e *External) Stat(modelDir string) (string, int64, error) {
	path, err := e.Resolve(modelDir)
	if err != nil {
		return "", 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, "external data file for location %q", e.Location)
	}
	if info.IsDir() {
		return "", 0, errors.Errorf("external data location %q is a directory", e.Location)
	}
	size := info.Size()
	if e.Offset > size {
		return "", 0, errors.Errorf("offset %d exceeds file size %d of %q", e.Offset, size, e.Location)
	}
	length := e.Length
	if length < 0 {
		length = size - e.Offset
	}
	if e.Offset+length > size {
		return "", 0, errors.Errorf("range [%d, %d) exceeds file size %d of %q", e.Offset, e.Offset+length, size, e.Location)
	}
	return path, length, nil
}

// Load reads the external payload of t, resolving its location against
// modelDir, and verifies it against the checksum entry when one is present.
func Load(t *onnx.TensorProto, modelDir string) ([]byte, error) {
	ext, err := ParseExternal(t)
	if err != nil {
		return nil, err
	}
	path, length, err := ext.Stat(modelDir)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open external data file %s", path)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			klog.Warningf("Error closing file %s: %v", path, cerr)
		}
	}()

	data := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(file, ext.Offset, length), data); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d bytes from external file %s", length, path)
	}
	if err := ext.VerifyChecksum(data); err != nil {
		return nil, err
	}
	return data, nil
}

// VerifyChecksum compares the SHA-1 digest of data with the checksum entry.
// It accepts any data when the entry is absent.
func (e *External) VerifyChecksum(data []byte) error {
	if e.Checksum == "" {
		return nil
	}
	sum := sha1.Sum(data)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, e.Checksum) {
		return errors.Errorf("checksum of %q is %s, expected %s", e.Location, got, e.Checksum)
	}
	return nil
}
