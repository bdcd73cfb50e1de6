package store

import "strings"

// keyPrefix namespaces repository entries inside the badger keyspace so that
// inspection tools can tell them apart from anything else in the database.
const keyPrefix = "kv:"

func encodeKey(key string) []byte {
	return []byte(keyPrefix + key)
}

func decodeKey(raw []byte) (string, bool) {
	return strings.CutPrefix(string(raw), keyPrefix)
}
