package gitsource

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Client is the network boundary of the fetcher. Tests substitute it to
// count or redirect clones.
type Client interface {
	PlainCloneContext(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error)
	// FetchCommit initializes a repository at path and fetches only the
	// given commit, without history.
	FetchCommit(ctx context.Context, path, url string, hash plumbing.Hash, auth transport.AuthMethod) (*git.Repository, error)
}

// RealClient implements Client using go-git.
type RealClient struct{}

// NewClient creates a new RealClient.
func NewClient() *RealClient {
	return &RealClient{}
}

// PlainCloneContext calls git.PlainCloneContext.
func (c *RealClient) PlainCloneContext(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error) {
	return git.PlainCloneContext(ctx, path, isBare, o)
}

// FetchCommit runs git init, adds origin, and fetches hash at depth 1.
// The remote must allow fetching unadvertised commits; GitHub, GitLab and
// git-daemon with uploadpack.allowReachableSHA1InWant do.
func (c *RealClient) FetchCommit(ctx context.Context, path, url string, hash plumbing.Hash, auth transport.AuthMethod) (*git.Repository, error) {
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: git.DefaultRemoteName, URLs: []string{url}}); err != nil {
		return nil, err
	}
	if err := repo.FetchContext(ctx, commitFetchOptions(hash, auth)); err != nil {
		return nil, err
	}
	return repo, nil
}

// commitFetchOptions requests a single commit by hash into refs/pinned.
func commitFetchOptions(hash plumbing.Hash, auth transport.AuthMethod) *git.FetchOptions {
	return &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(hash.String() + ":" + pinnedRef)},
		Depth:      1,
		Tags:       git.NoTags,
		Auth:       auth,
	}
}

const pinnedRef = "refs/pinned/source"
