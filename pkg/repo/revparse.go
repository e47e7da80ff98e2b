package repo

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
)

// RevParse resolves a revision expression to an object hash.
//
// The base of the expression may be HEAD, a full ref path, a branch or tag
// name, a full hash, or a unique hash prefix of at least four characters.
// The base may be followed by any number of suffix operators:
//
//	~N        Nth first-parent ancestor (~ is ~1)
//	^N        Nth parent (^ is ^1)
//	^{commit} peel to a commit
//	^{tree}   peel to a tree
func (r *Repo) RevParse(expr string) (object.Hash, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", fmt.Errorf("rev-parse: empty expression: %w", ErrRevisionNotFound)
	}

	base, ops, err := splitRevExpr(expr)
	if err != nil {
		return "", fmt.Errorf("rev-parse %q: %w", expr, err)
	}

	h, err := r.resolveRevBase(base)
	if err != nil {
		return "", fmt.Errorf("rev-parse %q: %w", expr, err)
	}

	for _, op := range ops {
		h, err = r.applyRevOp(h, op)
		if err != nil {
			return "", fmt.Errorf("rev-parse %q: %w", expr, err)
		}
	}
	return h, nil
}

// RevParseCommit resolves an expression and peels the result to a commit.
func (r *Repo) RevParseCommit(expr string) (object.Hash, error) {
	h, err := r.RevParse(expr)
	if err != nil {
		return "", err
	}
	return r.peelToCommit(h)
}

// RevParseTree resolves an expression and peels the result to a tree.
func (r *Repo) RevParseTree(expr string) (object.Hash, error) {
	h, err := r.RevParse(expr)
	if err != nil {
		return "", err
	}
	return r.peelToTree(h)
}

type revOp struct {
	kind string // "~", "^", "peel"
	n    int
	peel string // "commit" or "tree"
}

func splitRevExpr(expr string) (string, []revOp, error) {
	cut := len(expr)
	for i := 0; i < len(expr); i++ {
		if expr[i] == '~' || expr[i] == '^' {
			cut = i
			break
		}
	}
	base := expr[:cut]
	if base == "" {
		return "", nil, fmt.Errorf("missing revision base: %w", ErrRevisionNotFound)
	}

	var ops []revOp
	rest := expr[cut:]
	for len(rest) > 0 {
		opCh := rest[0]
		rest = rest[1:]

		if opCh == '^' && strings.HasPrefix(rest, "{") {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return "", nil, fmt.Errorf("unterminated peel operator: %w", ErrRevisionNotFound)
			}
			kind := rest[1:end]
			if kind != "commit" && kind != "tree" {
				return "", nil, fmt.Errorf("unsupported peel target %q: %w", kind, ErrRevisionNotFound)
			}
			ops = append(ops, revOp{kind: "peel", peel: kind})
			rest = rest[end+1:]
			continue
		}

		// Count digits following ~ or ^.
		j := 0
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		n := 1
		if j > 0 {
			parsed, err := strconv.Atoi(rest[:j])
			if err != nil {
				return "", nil, fmt.Errorf("bad revision suffix: %w", ErrRevisionNotFound)
			}
			n = parsed
			rest = rest[j:]
		}
		ops = append(ops, revOp{kind: string(opCh), n: n})
	}
	return base, ops, nil
}

// resolveRevBase tries refs first, then full hashes, then unique prefixes.
func (r *Repo) resolveRevBase(base string) (object.Hash, error) {
	if base == "HEAD" || strings.HasPrefix(base, "refs/") {
		h, err := r.ResolveRef(base)
		if err != nil {
			return "", fmt.Errorf("%v: %w", err, ErrRevisionNotFound)
		}
		return h, nil
	}

	if h, err := r.ResolveRef(base); err == nil {
		return h, nil
	}

	candidate := object.Hash(strings.ToLower(base))
	if candidate.IsValid() {
		if r.Store.Has(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("object %s not found: %w", base, ErrRevisionNotFound)
	}

	h, err := r.Store.ResolvePrefix(strings.ToLower(base))
	if err != nil {
		if errors.Is(err, object.ErrAmbiguousPrefix) {
			return "", err
		}
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("revision %q: %w", base, ErrRevisionNotFound)
		}
		return "", err
	}
	return h, nil
}

func (r *Repo) applyRevOp(h object.Hash, op revOp) (object.Hash, error) {
	switch op.kind {
	case "peel":
		if op.peel == "tree" {
			return r.peelToTree(h)
		}
		return r.peelToCommit(h)

	case "~":
		cur, err := r.peelToCommit(h)
		if err != nil {
			return "", err
		}
		for i := 0; i < op.n; i++ {
			commit, err := r.Store.ReadCommit(cur)
			if err != nil {
				return "", err
			}
			if len(commit.Parents) == 0 {
				return "", fmt.Errorf("commit %s has no parent: %w", cur.Short(), ErrRevisionNotFound)
			}
			cur = commit.Parents[0]
		}
		return cur, nil

	case "^":
		cur, err := r.peelToCommit(h)
		if err != nil {
			return "", err
		}
		commit, err := r.Store.ReadCommit(cur)
		if err != nil {
			return "", err
		}
		if op.n < 1 || op.n > len(commit.Parents) {
			return "", fmt.Errorf("commit %s has no parent %d: %w", cur.Short(), op.n, ErrRevisionNotFound)
		}
		return commit.Parents[op.n-1], nil
	}
	return "", fmt.Errorf("unknown revision operator %q", op.kind)
}

// peelToCommit follows tag objects until a commit is reached.
func (r *Repo) peelToCommit(h object.Hash) (object.Hash, error) {
	for depth := 0; depth < 16; depth++ {
		objType, _, err := r.Store.Read(h)
		if err != nil {
			return "", err
		}
		switch objType {
		case object.TypeCommit:
			return h, nil
		case object.TypeTag:
			tag, err := r.Store.ReadTag(h)
			if err != nil {
				return "", err
			}
			h = tag.TargetHash
		default:
			return "", fmt.Errorf("object %s is a %s, not a commit: %w", h.Short(), objType, ErrRevisionNotFound)
		}
	}
	return "", fmt.Errorf("tag chain too deep at %s", h.Short())
}

// peelToTree resolves the tree of a commit, follows tags, or returns the
// tree itself.
func (r *Repo) peelToTree(h object.Hash) (object.Hash, error) {
	for depth := 0; depth < 16; depth++ {
		objType, _, err := r.Store.Read(h)
		if err != nil {
			return "", err
		}
		switch objType {
		case object.TypeTree:
			return h, nil
		case object.TypeCommit:
			commit, err := r.Store.ReadCommit(h)
			if err != nil {
				return "", err
			}
			return commit.TreeHash, nil
		case object.TypeTag:
			tag, err := r.Store.ReadTag(h)
			if err != nil {
				return "", err
			}
			h = tag.TargetHash
		default:
			return "", fmt.Errorf("object %s is a %s, not a tree: %w", h.Short(), objType, ErrRevisionNotFound)
		}
	}
	return "", fmt.Errorf("tag chain too deep at %s", h.Short())
}
