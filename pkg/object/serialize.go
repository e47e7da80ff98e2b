package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a TreeObj to a deterministic text format, one entry
// per line:
//
//	<mode> <kind> <hash>\t<name>
//
// Entries are sorted by name before serialization so equal trees always
// produce equal bytes. The tab separator keeps names with spaces intact.
func MarshalTree(t *TreeObj) []byte {
	entries := make([]TreeEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	var buf bytes.Buffer
	for _, e := range entries {
		mode := e.Mode
		kind := "blob"
		hash := e.BlobHash
		if e.IsDir {
			if mode == "" {
				mode = TreeModeDir
			}
			kind = "tree"
			hash = e.SubtreeHash
		} else if mode == "" {
			mode = TreeModeFile
		}
		if mode == TreeModeCommitLink {
			kind = "commit"
		}
		fmt.Fprintf(&buf, "%s %s %s\t%s\n", mode, kind, hash, e.Name)
	}
	return buf.Bytes()
}

// UnmarshalTree parses a TreeObj from its serialized form.
func UnmarshalTree(data []byte) (*TreeObj, error) {
	t := &TreeObj{}
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		head, name, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("unmarshal tree: malformed entry %q", line)
		}
		fields := strings.SplitN(head, " ", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("unmarshal tree: malformed entry header %q", head)
		}
		entry := TreeEntry{
			Name: name,
			Mode: fields[0],
		}
		switch fields[1] {
		case "tree":
			entry.IsDir = true
			entry.SubtreeHash = Hash(fields[2])
		case "blob", "commit":
			entry.BlobHash = Hash(fields[2])
		default:
			return nil, fmt.Errorf("unmarshal tree: unknown entry kind %q", fields[1])
		}
		t.Entries = append(t.Entries, entry)
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a CommitObj to a deterministic header/body text
// format:
//
//	tree <hash>
//	parent <hash>       (one line per parent, in order)
//	author <name> <unix-ts> [tz]
//	committer <name> <unix-ts> [tz]
//	signature <encoded>  (only when signed)
//
//	<message>
func MarshalCommit(c *CommitObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	writeIdentLine(&buf, "author", c.Author, c.Timestamp, c.AuthorTimezone)

	committer := c.Committer
	committerTS := c.CommitterTimestamp
	committerTZ := c.CommitterTimezone
	if committer == "" {
		committer = c.Author
	}
	if committerTS == 0 {
		committerTS = c.Timestamp
	}
	if committerTZ == "" {
		committerTZ = c.AuthorTimezone
	}
	writeIdentLine(&buf, "committer", committer, committerTS, committerTZ)

	if c.Signature != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

func writeIdentLine(buf *bytes.Buffer, key, name string, ts int64, tz string) {
	if tz != "" {
		fmt.Fprintf(buf, "%s %s %d %s\n", key, name, ts, tz)
		return
	}
	fmt.Fprintf(buf, "%s %s %d\n", key, name, ts)
}

// UnmarshalCommit parses a CommitObj from its serialized form.
func UnmarshalCommit(data []byte) (*CommitObj, error) {
	header, message, ok := strings.Cut(string(data), "\n\n")
	if !ok {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator")
	}

	c := &CommitObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q", line)
		}
		switch key {
		case "tree":
			c.TreeHash = Hash(val)
		case "parent":
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			name, ts, tz, err := parseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author, c.Timestamp, c.AuthorTimezone = name, ts, tz
		case "committer":
			name, ts, tz, err := parseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer, c.CommitterTimestamp, c.CommitterTimezone = name, ts, tz
		case "signature":
			c.Signature = val
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header %q", key)
		}
	}
	if c.TreeHash == "" {
		return nil, fmt.Errorf("unmarshal commit: missing tree header")
	}
	return c, nil
}

// parseIdent splits "<name> <unix-ts> [tz]" from the right, so names may
// contain spaces.
func parseIdent(val string) (name string, ts int64, tz string, err error) {
	fields := strings.Split(val, " ")
	if len(fields) < 2 {
		return "", 0, "", fmt.Errorf("malformed ident %q", val)
	}

	last := fields[len(fields)-1]
	rest := fields[:len(fields)-1]
	if strings.HasPrefix(last, "+") || strings.HasPrefix(last, "-") {
		tz = last
		if len(rest) < 2 {
			return "", 0, "", fmt.Errorf("malformed ident %q", val)
		}
		last = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
	}

	ts, err = strconv.ParseInt(last, 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("malformed timestamp in ident %q: %w", val, err)
	}
	return strings.Join(rest, " "), ts, tz, nil
}

// ---------------------------------------------------------------------------
// Tag
// ---------------------------------------------------------------------------

// MarshalTag serializes an annotated TagObj:
//
//	object <hash>
//	type <objtype>
//	tag <name>
//	tagger <name> <unix-ts>
//
//	<message>
func MarshalTag(t *TagObj) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.TargetHash)
	fmt.Fprintf(&buf, "type %s\n", t.TargetType)
	fmt.Fprintf(&buf, "tag %s\n", t.Name)
	fmt.Fprintf(&buf, "tagger %s %d\n", t.Tagger, t.Timestamp)
	buf.WriteByte('\n')
	buf.WriteString(t.Message)
	return buf.Bytes()
}

// UnmarshalTag parses a TagObj from its serialized form.
func UnmarshalTag(data []byte) (*TagObj, error) {
	header, message, ok := strings.Cut(string(data), "\n\n")
	if !ok {
		return nil, fmt.Errorf("unmarshal tag: missing header/message separator")
	}

	t := &TagObj{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal tag: malformed header line %q", line)
		}
		switch key {
		case "object":
			t.TargetHash = Hash(val)
		case "type":
			t.TargetType = ObjectType(val)
		case "tag":
			t.Name = val
		case "tagger":
			name, ts, _, err := parseIdent(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal tag: tagger: %w", err)
			}
			t.Tagger, t.Timestamp = name, ts
		default:
			return nil, fmt.Errorf("unmarshal tag: unknown header %q", key)
		}
	}
	if t.TargetHash == "" {
		return nil, fmt.Errorf("unmarshal tag: missing object header")
	}
	return t, nil
}
