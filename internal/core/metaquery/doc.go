// Package metaquery implements the metadata query engine used to search
// result metadata.
//
// Result metadata is free-form JSON written by external analyzers, so the
// engine never assumes a shape. It is made of four layers:
//
//   - Value: a tagged union over JSON values, parsed with ojg
//   - Resolve/Traverse: nested key lookup that fans out over arrays of objects
//   - Parse: the comma separated query language
//   - Matches: clause evaluation against a parsed document
//
// # Query Language
//
// A query is a comma separated list of clauses, all of which must hold:
//
//	curl_metadata:Server=="shakti-prod i-0ee8",vulnerability_count:closed==1
//	github_analyzer:private!=false
//	array_test@>["1"]
//
// Path segments are joined with ':'. Operators are == (equal), != (not
// equal, also satisfied when the key is absent) and @> (array contains all
// listed elements). Double quoted literals may contain commas, colons and
// operator characters.
//
// # Import Rules
//
//   - Can Import: Standard library, ojg
//   - Cannot Import: Any other internal/ package
package metaquery
