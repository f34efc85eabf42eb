package form

// Data is a single plain field of a decoded form. Fields of url-encoded
// bodies and text parts of multipart bodies are both represented this way.
type Data struct {
	Name  string
	Value string
}

// File is a single uploaded file. Its content never stays in memory: it is
// spooled to Path while the body is being parsed, and the spooled copy is
// removed once the request cycle completes, unless claimed.
type File struct {
	// Name is the form field the file was sent under.
	Name string
	// Filename is the client-supplied name, reduced to its base component.
	Filename string
	// ContentType is the part's Content-Type, application/octet-stream if omitted.
	ContentType string
	// Path locates the spooled copy on disk.
	Path string
	// Size is the spooled length in bytes.
	Size int64

	claimed bool
}

// Claim transfers ownership of the spooled file to the caller: the server no
// longer removes it when the request cycle completes. Returns the path.
func (f *File) Claim() string {
	f.claimed = true
	return f.Path
}

// Claimed reports whether ownership was transferred via Claim.
func (f *File) Claimed() bool {
	return f.claimed
}

// Form carries decoded fields and files in the order they appeared on the wire.
type Form struct {
	Fields []Data
	Files  []File
}

// Value returns the value of the named field. If the field was sent more than
// once, the last occurrence wins.
func (f *Form) Value(name string) (value string, found bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			value, found = field.Value, true
		}
	}

	return value, found
}

// Values returns all values of the named field, preserving wire order.
func (f *Form) Values(name string) (values []string) {
	for _, field := range f.Fields {
		if field.Name == name {
			values = append(values, field.Value)
		}
	}

	return values
}

// File returns the first file uploaded under the named field. The pointer
// stays valid until the request cycle completes; call Claim on it to keep the
// spooled content past that.
func (f *Form) File(name string) (*File, bool) {
	for i := range f.Files {
		if f.Files[i].Name == name {
			return &f.Files[i], true
		}
	}

	return nil, false
}

// Clear empties the form, keeping the underlying storage for reuse.
func (f *Form) Clear() {
	f.Fields = f.Fields[:0]
	f.Files = f.Files[:0]
}
