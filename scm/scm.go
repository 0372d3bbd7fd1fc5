// Package scm normalizes and compares the source-control coordinates Jenkins
// reports for its jobs: repository URLs in their many spellings (HTTPS, SSH,
// scp-style git@host:path) and branch specifications with their wildcard and
// remote-prefix conventions.
//
// The normalization rules are deliberately heuristic and match what Jenkins
// job configurations contain in practice. They do not attempt to handle
// forms outside the documented set (for example ssh URLs with explicit
// ports keep the port in the host segment).
package scm

import "strings"

var schemes = []string{"https://", "http://", "ssh://", "git://"}

// NormalizeRepoURL reduces a repository URL to a canonical comparable form:
// trailing ".git" and slashes stripped, scheme stripped, leading "user@"
// stripped, the scp-style "host:path" separator collapsed to "host/path",
// and the result lower-cased.
//
// All of git@host:org/repo.git, https://host/org/repo, and
// https://host/org/repo.git/ normalize to "host/org/repo".
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	s = strings.TrimRight(s, "/")

	for _, scheme := range schemes {
		if strings.HasPrefix(s, scheme) {
			s = strings.TrimPrefix(s, scheme)
			break
		}
	}

	// Strip a leading "user@" authentication prefix. Only applies when the
	// "@" appears before any path separator.
	if at := strings.Index(s, "@"); at >= 0 && !strings.ContainsAny(s[:at], "/:") {
		s = s[at+1:]
	}

	// Collapse the scp-style "host:path" separator.
	if colon := strings.Index(s, ":"); colon >= 0 {
		slash := strings.Index(s, "/")
		if slash < 0 || colon < slash {
			s = s[:colon] + "/" + s[colon+1:]
		}
	}

	return strings.ToLower(s)
}

// SameRepo reports whether two repository URLs normalize to the same form.
// Two empty URLs never match.
func SameRepo(a, b string) bool {
	na, nb := NormalizeRepoURL(a), NormalizeRepoURL(b)
	return na != "" && na == nb
}

// NormalizeBranchName strips the remote-tracking prefixes Jenkins attaches
// to branch names.
func NormalizeBranchName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "refs/remotes/origin/")
	name = strings.TrimPrefix(name, "origin/")
	return name
}

// BranchSpecMatches reports whether a job's branch specification matches a
// branch name. "**" matches any branch; a "*/" prefix on the spec is
// stripped; remote prefixes are stripped from both sides; the remainder is
// compared for exact equality.
func BranchSpecMatches(spec, branch string) bool {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return false
	}
	if spec == "**" {
		return true
	}
	spec = strings.TrimPrefix(spec, "*/")
	return NormalizeBranchName(spec) == NormalizeBranchName(branch)
}
