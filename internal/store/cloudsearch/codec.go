package cloudsearch

import "strings"

// The remote service reserves ':' as its own field/value separator, so
// colons inside abstract names are substituted before namespacing.
const colonEscape = "_x3a"

// EncodeName namespaces an abstract field or document name for the
// remote domain: the namespace plus '_' is prepended and every ':' is
// replaced by the escape sequence.
func EncodeName(namespace, name string) string {
	return namespace + "_" + strings.ReplaceAll(name, ":", colonEscape)
}

// DecodeName is the inverse of EncodeName. Exactly one leading
// namespace prefix is removed and the escape substitution reversed.
// A missing prefix is not an error: the input is returned with only
// the substitution reversed, so callers must not rely on DecodeName to
// detect corruption.
func DecodeName(namespace, encoded string) string {
	trimmed := strings.TrimPrefix(encoded, namespace+"_")
	return strings.ReplaceAll(trimmed, colonEscape, ":")
}

// belongsTo reports whether an encoded name falls inside a namespace.
// Fields of other indexes sharing the same domain do not.
func belongsTo(namespace, encoded string) bool {
	return strings.HasPrefix(encoded, namespace+"_")
}
