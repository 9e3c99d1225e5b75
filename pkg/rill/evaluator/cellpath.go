package evaluator

import (
	"strconv"
	"strings"

	"github.com/rill-lang/rill/pkg/rill/lexer"
)

// PathMember is one step of a cell path: a field name into a record or an
// integer index into an array.
type PathMember interface {
	pathMember()
	String() string
	Pos() lexer.Token
}

// FieldMember selects a record entry by name
type FieldMember struct {
	Name  string
	Token lexer.Token
}

func (m FieldMember) pathMember()      {}
func (m FieldMember) String() string   { return m.Name }
func (m FieldMember) Pos() lexer.Token { return m.Token }

// IndexMember selects an array element by position
type IndexMember struct {
	Index int64
	Token lexer.Token
}

func (m IndexMember) pathMember()      {}
func (m IndexMember) String() string   { return strconv.FormatInt(m.Index, 10) }
func (m IndexMember) Pos() lexer.Token { return m.Token }

// CellPath addresses a sub-value inside a nested structure, e.g. "users.3.name"
type CellPath struct {
	Members []PathMember
}

// String renders the path in dotted form
func (cp CellPath) String() string {
	parts := make([]string, len(cp.Members))
	for i, m := range cp.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, ".")
}

// ParseCellPath splits a dotted path string into members. Segments made
// entirely of digits become index members, everything else a field member.
func ParseCellPath(path string, tok lexer.Token) (CellPath, *Error) {
	if path == "" {
		return CellPath{}, newPathError("PATH-0005", tok, nil)
	}

	segments := strings.Split(path, ".")
	members := make([]PathMember, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return CellPath{}, newPathError("PATH-0005", tok, nil)
		}
		if idx, err := strconv.ParseInt(seg, 10, 64); err == nil && allDigits(seg) {
			members = append(members, IndexMember{Index: idx, Token: tok})
			continue
		}
		members = append(members, FieldMember{Name: seg, Token: tok})
	}

	return CellPath{Members: members}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// FollowCellPath descends through records and arrays along the path and
// returns the addressed sub-value. An empty member list returns the value
// itself. Descent stops with an error at the first member that does not
// apply to the current value.
func FollowCellPath(obj Object, members []PathMember) (Object, *Error) {
	current := baseObject(obj)

	for _, member := range members {
		switch m := member.(type) {
		case FieldMember:
			rec, ok := current.(*Record)
			if !ok {
				return nil, newPathError("PATH-0003", m.Token, map[string]any{
					"Got":    strings.ToLower(string(current.Type())),
					"Member": "field '" + m.Name + "'",
				})
			}
			val, found := rec.Get(m.Name)
			if !found {
				return nil, newPathError("PATH-0001", m.Token, map[string]any{
					"Name": m.Name,
				})
			}
			current = baseObject(val)

		case IndexMember:
			arr, ok := current.(*Array)
			if !ok {
				return nil, newPathError("PATH-0003", m.Token, map[string]any{
					"Got":    strings.ToLower(string(current.Type())),
					"Member": "index " + m.String(),
				})
			}
			if m.Index < 0 || m.Index >= int64(len(arr.Elements)) {
				if len(arr.Elements) == 0 {
					return nil, newPathError("PATH-0004", m.Token, nil)
				}
				return nil, newPathError("PATH-0002", m.Token, map[string]any{
					"Index":    m.Index,
					"MaxIndex": len(arr.Elements) - 1,
				})
			}
			current = baseObject(arr.Elements[m.Index])
		}
	}

	return current, nil
}

// UpdateCellPath replaces the sub-value addressed by the path, mutating the
// container that holds the leaf. The leaf must already exist; writing through
// a missing field or a too-large index fails with the same errors as reading.
func UpdateCellPath(obj Object, members []PathMember, newVal Object) *Error {
	if len(members) == 0 {
		return newPathError("PATH-0005", lexer.Token{}, nil)
	}

	parent := obj
	if len(members) > 1 {
		p, err := FollowCellPath(obj, members[:len(members)-1])
		if err != nil {
			return err
		}
		parent = p
	}
	parent = baseObject(parent)

	switch m := members[len(members)-1].(type) {
	case FieldMember:
		rec, ok := parent.(*Record)
		if !ok {
			return newPathError("PATH-0003", m.Token, map[string]any{
				"Got":    strings.ToLower(string(parent.Type())),
				"Member": "field '" + m.Name + "'",
			})
		}
		if _, found := rec.Get(m.Name); !found {
			return newPathError("PATH-0001", m.Token, map[string]any{
				"Name": m.Name,
			})
		}
		rec.Set(m.Name, newVal)
		return nil

	case IndexMember:
		arr, ok := parent.(*Array)
		if !ok {
			return newPathError("PATH-0003", m.Token, map[string]any{
				"Got":    strings.ToLower(string(parent.Type())),
				"Member": "index " + m.String(),
			})
		}
		if m.Index < 0 || m.Index >= int64(len(arr.Elements)) {
			if len(arr.Elements) == 0 {
				return newPathError("PATH-0004", m.Token, nil)
			}
			return newPathError("PATH-0002", m.Token, map[string]any{
				"Index":    m.Index,
				"MaxIndex": len(arr.Elements) - 1,
			})
		}
		arr.Elements[m.Index] = newVal
		return nil
	}

	return newPathError("PATH-0005", lexer.Token{}, nil)
}
