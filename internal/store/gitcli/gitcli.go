// Package gitcli is a persistport.Port backed by shelling out to a git
// binary's plumbing commands (hash-object, mktree, cat-file). It is wrapped
// externally with a cenkalti/backoff/v4 retry decorator, keeping the
// framing of retry policy as a decoration applied to the port rather than
// something the port itself knows about.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kenneth/git-cas/internal/cas/persistport"
)

// Adapter shells out to git against a single repository directory.
type Adapter struct {
	gitBinary string
	gitDir    string
}

// New builds an Adapter rooted at gitDir (a bare or non-bare repository's
// .git directory). gitBinary defaults to "git" when empty.
func New(gitBinary, gitDir string) *Adapter {
	if gitBinary == "" {
		gitBinary = "git"
	}
	return &Adapter{gitBinary: gitBinary, gitDir: gitDir}
}

func (a *Adapter) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, a.gitBinary, append([]string{"--git-dir", a.gitDir}, args...)...)
	return cmd
}

func (a *Adapter) WriteBlob(ctx context.Context, data []byte) (string, error) {
	cmd := a.command(ctx, "hash-object", "-w", "--stdin")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git hash-object failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (a *Adapter) WriteTree(ctx context.Context, entries []persistport.TreeEntry) (string, error) {
	cmd := a.command(ctx, "mktree")
	cmd.Stdin = bytes.NewReader(persistport.FormatTree(entries))
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git mktree failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (a *Adapter) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	cmd := a.command(ctx, "cat-file", "-p", oid)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git cat-file failed for %s: %w", oid, err)
	}
	return out, nil
}

func (a *Adapter) ReadTree(ctx context.Context, oid string) ([]persistport.TreeEntry, error) {
	cmd := a.command(ctx, "cat-file", "-p", oid)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git cat-file failed for tree %s: %w", oid, err)
	}
	return persistport.ParseTree(out)
}

var _ persistport.Port = (*Adapter)(nil)
