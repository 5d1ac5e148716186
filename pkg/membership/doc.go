// Package membership holds the bipartite relation between groups and their
// members.
//
// In contribnet a group is usually a repository ("owner/repo") and a member
// is a contributor login, but both are opaque strings. A [Relation] is the
// input to the projection step (see package projection); it is consumed
// there and never needed again.
//
// # File Format
//
// Relations are stored as a JSON object mapping each group to its member
// list:
//
//	{
//	  "golang/go": ["rsc", "griesemer", "robpike"],
//	  "golang/tools": ["rsc", "findleyr"]
//	}
//
// [Read] and [ReadFile] validate every identifier. Empty or blank ids and
// JSON null entries are rejected with errors.ErrCodeMalformedInput.
// Duplicate members inside one group are accepted and ignored.
package membership
