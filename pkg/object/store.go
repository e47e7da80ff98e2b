package object

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Store is the narrow interface the porcelain engines consume: typed reads
// and writes of immutable objects. Implementations must be safe for
// concurrent readers.
type Store interface {
	Has(h Hash) bool
	Read(h Hash) (ObjectType, []byte, error)
	ResolvePrefix(prefix string) (Hash, error)

	ReadBlob(h Hash) (*Blob, error)
	ReadTree(h Hash) (*TreeObj, error)
	ReadCommit(h Hash) (*CommitObj, error)
	ReadTag(h Hash) (*TagObj, error)

	WriteBlob(b *Blob) (Hash, error)
	WriteTree(t *TreeObj) (Hash, error)
	WriteCommit(c *CommitObj) (Hash, error)
	WriteTag(t *TagObj) (Hash, error)
}

// ErrAmbiguousPrefix is returned by ResolvePrefix when more than one stored
// object matches the prefix.
var ErrAmbiguousPrefix = fmt.Errorf("ambiguous object id prefix")

// FileStore is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Object files hold the envelope
// "type len\0content" compressed with zstd.
type FileStore struct {
	root string

	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at the given directory. The
// objects/ subdirectory is created lazily on first write.
func NewFileStore(root string) *FileStore {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	dec, _ := zstd.NewReader(nil)
	return &FileStore{root: root, enc: enc, dec: dec}
}

// objectPath returns the filesystem path for a given hash.
func (s *FileStore) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *FileStore) Has(h Hash) bool {
	if !h.IsValid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// write stores an object and returns its content hash. Writes are atomic:
// data goes to a temp file which is then renamed into place. Writing an
// object that already exists is a no-op.
func (s *FileStore) write(objType ObjectType, data []byte) (Hash, error) {
	envelope := fmt.Sprintf("%s %d\x00", objType, len(data))
	raw := append([]byte(envelope), data...)

	h := HashObject(objType, data)
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	compressed := s.enc.EncodeAll(raw, nil)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *FileStore) Read(h Hash) (ObjectType, []byte, error) {
	if !h.IsValid() {
		return "", nil, fmt.Errorf("object read: invalid hash %q: %w", h, os.ErrNotExist)
	}
	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	raw, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", h)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("object read %s: invalid header %q", h, header)
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", h, parts[1], err)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}
	return objType, content, nil
}

// ResolvePrefix expands an abbreviated object id (at least 4 hex chars) to
// the unique stored hash with that prefix. It returns os.ErrNotExist when
// nothing matches and ErrAmbiguousPrefix when more than one object does.
func (s *FileStore) ResolvePrefix(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < 4 || len(prefix) > 64 {
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, os.ErrNotExist)
	}
	if len(prefix) == 64 {
		h := Hash(prefix)
		if s.Has(h) {
			return h, nil
		}
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, os.ErrNotExist)
	}

	fanout := prefix[:2]
	dir := filepath.Join(s.root, "objects", fanout)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("resolve prefix %q: %w", prefix, os.ErrNotExist)
		}
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, err)
	}

	var matches []Hash
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		full := fanout + e.Name()
		if strings.HasPrefix(full, prefix) {
			matches = append(matches, Hash(full))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i] < matches[j] })

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, os.ErrNotExist)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("resolve prefix %q: %w (%d candidates)", prefix, ErrAmbiguousPrefix, len(matches))
	}
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func (s *FileStore) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, want)
	}
	return data, nil
}

// ReadBlob reads and deserializes a Blob.
func (s *FileStore) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// ReadTree reads and deserializes a TreeObj.
func (s *FileStore) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	return UnmarshalTree(data)
}

// ReadCommit reads and deserializes a CommitObj.
func (s *FileStore) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	return UnmarshalCommit(data)
}

// ReadTag reads and deserializes a TagObj.
func (s *FileStore) ReadTag(h Hash) (*TagObj, error) {
	data, err := s.readTyped(h, TypeTag)
	if err != nil {
		return nil, err
	}
	return UnmarshalTag(data)
}

// WriteBlob serializes and stores a Blob.
func (s *FileStore) WriteBlob(b *Blob) (Hash, error) {
	return s.write(TypeBlob, MarshalBlob(b))
}

// WriteTree serializes and stores a TreeObj.
func (s *FileStore) WriteTree(t *TreeObj) (Hash, error) {
	return s.write(TypeTree, MarshalTree(t))
}

// WriteCommit serializes and stores a CommitObj.
func (s *FileStore) WriteCommit(c *CommitObj) (Hash, error) {
	return s.write(TypeCommit, MarshalCommit(c))
}

// WriteTag serializes and stores a TagObj.
func (s *FileStore) WriteTag(t *TagObj) (Hash, error) {
	return s.write(TypeTag, MarshalTag(t))
}
