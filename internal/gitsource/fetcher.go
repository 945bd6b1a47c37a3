package gitsource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Checkout is a source tree at a pinned revision.
type Checkout struct {
	Dir    string
	Commit string
	Ref    string
}

// Options configures a Fetcher.
type Options struct {
	AllowedHosts []string
	Client       Client
	Logger       pgbundle.Logger
}

// Fetcher clones pinned git sources after checking their host against the
// allow-list.
type Fetcher struct {
	allowed []string
	client  Client
	logger  pgbundle.Logger
}

// NewFetcher creates a Fetcher. A nil client uses go-git directly.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = NewClient()
	}
	return &Fetcher{
		allowed: opts.AllowedHosts,
		client:  client,
		logger:  opts.Logger,
	}
}

// Fetch clones the entry's source into dest and checks out the pinned
// revision. The host check runs before any network access.
func (f *Fetcher) Fetch(ctx context.Context, entry *manifest.Entry, dest string) (*Checkout, error) {
	src := entry.Source
	if !src.Type.IsGit() {
		return nil, fmt.Errorf("%s: %w: %q", entry.Name, pgbundle.ErrUnsupportedSourceType, src.Type)
	}
	if err := CheckHost(entry.Name, src.Repository, f.allowed); err != nil {
		return nil, err
	}

	kind, rev := src.Pin()
	if kind == manifest.PinNone {
		return nil, fmt.Errorf("%s: %w: source is not pinned to a commit or tag", entry.Name, pgbundle.ErrBuildFailed)
	}

	auth := authFor(src.Repository)
	var repo *git.Repository
	if kind == manifest.PinCommit && len(rev) == fullHashLen {
		f.verbose("Fetching %s at %s", src.Repository, rev)
		shallow, err := f.client.FetchCommit(ctx, dest, src.Repository, plumbing.NewHash(strings.ToLower(rev)), auth)
		if err == nil {
			repo = shallow
		} else {
			f.verbose("Shallow fetch of %s failed (%v); cloning full history", rev, err)
			if err := os.RemoveAll(dest); err != nil {
				return nil, fmt.Errorf("%s: %w: reset %s: %v", entry.Name, pgbundle.ErrBuildFailed, dest, err)
			}
		}
	}

	if repo == nil {
		opts := cloneOptions(src.Repository, kind, rev, auth)
		f.verbose("Cloning %s (%s)", src.Repository, rev)
		cloned, err := f.client.PlainCloneContext(ctx, dest, false, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: clone %s: %v", entry.Name, pgbundle.ErrBuildFailed, src.Repository, err)
		}
		repo = cloned
	}

	commit, err := checkout(repo, kind, rev)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", entry.Name, pgbundle.ErrBuildFailed, err)
	}

	if err := updateSubmodules(ctx, repo, auth); err != nil {
		return nil, fmt.Errorf("%s: %w: submodules: %v", entry.Name, pgbundle.ErrBuildFailed, err)
	}

	f.verbose("Checked out %s at %s", entry.Name, commit)
	return &Checkout{Dir: dest, Commit: commit, Ref: rev}, nil
}

const fullHashLen = 40

// cloneOptions clones a tag at depth 1. Abbreviated commits, and remotes that
// refuse single-commit fetches, need the full history to resolve.
func cloneOptions(url string, kind manifest.PinKind, rev string, auth transport.AuthMethod) *git.CloneOptions {
	opts := &git.CloneOptions{URL: url, Auth: auth}
	if kind == manifest.PinTag {
		opts.ReferenceName = plumbing.NewTagReferenceName(rev)
		opts.SingleBranch = true
		opts.Depth = 1
	} else {
		opts.NoCheckout = true
	}
	return opts
}

// checkout moves the worktree to the pinned revision and verifies HEAD.
func checkout(repo *git.Repository, kind manifest.PinKind, rev string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}

	var want *plumbing.Hash
	if kind == manifest.PinTag {
		want, err = repo.ResolveRevision(plumbing.Revision(plumbing.NewTagReferenceName(rev)))
	} else {
		want, err = repo.ResolveRevision(plumbing.Revision(rev))
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}

	if err := wt.Checkout(&git.CheckoutOptions{Hash: *want, Force: true}); err != nil {
		return "", fmt.Errorf("checkout %s: %w", rev, err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	got := head.Hash().String()
	if got != want.String() {
		return "", fmt.Errorf("HEAD is %s, expected %s", got, want)
	}
	if kind == manifest.PinCommit && !strings.HasPrefix(got, strings.ToLower(rev)) {
		return "", fmt.Errorf("HEAD is %s, pinned commit %s", got, rev)
	}
	return got, nil
}

func updateSubmodules(ctx context.Context, repo *git.Repository, auth transport.AuthMethod) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	subs, err := wt.Submodules()
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	return subs.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
		Auth:              auth,
	})
}

// authFor returns token auth for https remotes when GITHUB_TOKEN is set.
func authFor(repository string) transport.AuthMethod {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" || !strings.HasPrefix(repository, "https://") {
		return nil
	}
	return &githttp.BasicAuth{
		Username: "token",
		Password: token,
	}
}

func (f *Fetcher) verbose(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Verbose(format, args...)
	}
}
