package db

var (
	NamespaceOperation = []byte("op")
	NamespaceNextNonce = []byte("nn")
	EmptyKey           = []byte{}
	Separator          = []byte("|")
)

// PrependNamespace returns namespace|key in a freshly allocated slice.
func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace == nil {
		return key
	}
	out := make([]byte, 0, len(namespace)+len(Separator)+len(key))
	out = append(out, namespace...)
	out = append(out, Separator...)
	return append(out, key...)
}

func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
