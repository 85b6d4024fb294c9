package persistport

import (
	"fmt"
	"strings"

	"github.com/kenneth/git-cas/internal/cas/caserr"
)

// FormatTreeLine renders a TreeEntry as "<mode> <type> <oid>\t<name>", the
// exact line format git's own `cat-file -p` and `mktree` plumbing use.
func FormatTreeLine(e TreeEntry) string {
	return fmt.Sprintf("%s %s %s\t%s", e.Mode, e.Type, e.OID, e.Name)
}

// ParseTreeLine parses one tree-object line, strictly enforcing the format.
// Any deviation — a missing tab, other than three space-separated fields
// before the tab, an empty mode/oid/name, an unrecognized object type — is
// reported as caserr.TreeParseError rather than silently
// tolerated, since a misparsed tree would otherwise surface as phantom or
// missing chunks much later in a restore.
func ParseTreeLine(line string) (TreeEntry, error) {
	tabIdx := strings.IndexByte(line, '\t')
	if tabIdx < 0 {
		return TreeEntry{}, caserr.TreeParseErr(line)
	}
	name := line[tabIdx+1:]
	head := line[:tabIdx]

	fields := strings.Split(head, " ")
	if len(fields) != 3 {
		return TreeEntry{}, caserr.TreeParseErr(line)
	}
	mode, typ, oid := fields[0], fields[1], fields[2]

	if mode == "" || oid == "" || name == "" {
		return TreeEntry{}, caserr.TreeParseErr(line)
	}
	var objType ObjectType
	switch typ {
	case string(ObjectBlob):
		objType = ObjectBlob
	case string(ObjectTree):
		objType = ObjectTree
	default:
		return TreeEntry{}, caserr.TreeParseErr(line)
	}

	return TreeEntry{Mode: mode, Type: objType, OID: oid, Name: name}, nil
}

// ParseTree parses every non-empty line of a raw tree object body.
func ParseTree(raw []byte) ([]TreeEntry, error) {
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	entries := make([]TreeEntry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		e, err := ParseTreeLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FormatTree renders entries back into a raw tree object body.
func FormatTree(entries []TreeEntry) []byte {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(FormatTreeLine(e))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
