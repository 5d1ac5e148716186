package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds identifiers accepted from external sources.
const maxIDLength = 256

// ValidateMemberID checks a member identifier from a membership relation.
// Member ids are opaque: the only malformed id is the empty string, which is
// what a null entry in the source data decodes to.
func ValidateMemberID(id string) error {
	if id == "" {
		return New(ErrCodeMalformedInput, "member id cannot be empty")
	}
	return nil
}

// ValidateGroupID checks a group identifier with the same rule as
// [ValidateMemberID].
func ValidateGroupID(id string) error {
	if id == "" {
		return New(ErrCodeMalformedInput, "group id cannot be empty")
	}
	return nil
}

// ValidateExternalID applies the stricter checks used where identifiers
// enter from the network (collected logins, uploaded relations). what names
// the identifier in the error message.
//
// Rejected:
//   - Empty ids
//   - Ids made only of whitespace
//   - Control characters or null bytes
//   - Ids longer than 256 bytes
func ValidateExternalID(id, what string) error {
	if id == "" {
		return New(ErrCodeMalformedInput, "%s cannot be empty", what)
	}
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeMalformedInput, "%s cannot be blank", what)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeMalformedInput, "%s too long (max %d bytes)", what, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeMalformedInput, "%s contains invalid control characters", what)
		}
	}
	return nil
}

// repoSlugRegex matches GitHub "owner/repo" slugs.
var repoSlugRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})/[A-Za-z0-9._-]{1,100}$`)

// ValidateRepoSlug validates an "owner/repo" repository slug and returns its parts.
func ValidateRepoSlug(slug string) (owner, repo string, err error) {
	if slug == "" {
		return "", "", New(ErrCodeInvalidRepo, "repository cannot be empty")
	}
	if !repoSlugRegex.MatchString(slug) {
		return "", "", New(ErrCodeInvalidRepo, "invalid repository %q (want owner/repo)", slug)
	}
	owner, repo, _ = strings.Cut(slug, "/")
	if repo == "." || repo == ".." {
		return "", "", New(ErrCodeInvalidRepo, "invalid repository name %q", repo)
	}
	return owner, repo, nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
