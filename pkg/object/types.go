package object

// Hash is a 64-character hex-encoded SHA-256 digest identifying an object.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeCommitLink = "160000"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Directory entries carry
// SubtreeHash; file entries carry BlobHash; commit-link entries carry the
// linked commit hash in BlobHash with TreeModeCommitLink.
type TreeEntry struct {
	Name        string
	IsDir       bool
	Mode        string
	BlobHash    Hash
	SubtreeHash Hash
}

// TreeObj holds one directory snapshot: entries sorted by Name.
type TreeObj struct {
	Entries []TreeEntry
}

// CommitObj represents a commit pointing to a tree with metadata. Parents
// is empty for a root commit, has one entry for a normal commit, and two
// or more for a merge.
type CommitObj struct {
	TreeHash           Hash
	Parents            []Hash
	Author             string
	Timestamp          int64
	AuthorTimezone     string
	Committer          string
	CommitterTimestamp int64
	CommitterTimezone  string
	Signature          string
	Message            string
}

// TagObj is an annotated tag pointing at another object. Lightweight tags
// are plain refs and never produce a TagObj.
type TagObj struct {
	TargetHash Hash
	TargetType ObjectType
	Name       string
	Tagger     string
	Timestamp  int64
	Message    string
}
