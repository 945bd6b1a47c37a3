package gitsource

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// UntrustedSourceError reports a repository whose host is not allow-listed.
type UntrustedSourceError struct {
	Entry      string
	Repository string
	Host       string
}

func (e *UntrustedSourceError) Error() string {
	host := e.Host
	if host == "" {
		host = "(none)"
	}
	return fmt.Sprintf("%s: repository %s: host %s is not in the allowed hosts", e.Entry, e.Repository, host)
}

func (e *UntrustedSourceError) Unwrap() error {
	return pgbundle.ErrUntrustedSource
}

// RepositoryHost extracts the host of an https, ssh, git, or scp-style
// repository address. Local paths and file URLs have no host.
func RepositoryHost(repository string) (string, error) {
	ep, err := transport.NewEndpoint(repository)
	if err != nil {
		return "", fmt.Errorf("invalid repository address %q: %w", repository, err)
	}
	if ep.Protocol == "file" {
		return "", nil
	}
	return strings.ToLower(ep.Host), nil
}

// CheckHost returns an *UntrustedSourceError unless the repository host
// exactly matches one of the allowed hosts. Subdomains are not implied.
func CheckHost(entry, repository string, allowed []string) error {
	host, err := RepositoryHost(repository)
	if err != nil {
		return &UntrustedSourceError{Entry: entry, Repository: repository}
	}
	if host != "" {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(a), host) {
				return nil
			}
		}
	}
	return &UntrustedSourceError{Entry: entry, Repository: repository, Host: host}
}
