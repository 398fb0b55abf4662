package multipartext

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// NewFormReader creates a new io.Reader that serves multipart form-data consisting of a single
// file part named "file", served from src, followed by the given plain form fields. The file
// content itself is streamed, not buffered. Also returns the form data content type
// (see multipart.Writer#FormDataContentType).
func NewFormReader(filename, contentType string, src io.Reader, fields map[string]string) (io.Reader, string, error) {
	// Create the multipart header.
	buffy := &bytes.Buffer{}
	writer := multipart.NewWriter(buffy)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)

	// Create the actual part that will hold the data. Though we won't actually write the data just yet, since we want
	// to stream it later.
	if _, err := writer.CreatePart(header); err != nil {
		return nil, "", err
	}
	headerSize := buffy.Len()

	// Fields are written in stable order so that the payload is reproducible.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}

	// Finish the multipart message.
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return io.MultiReader(
			bytes.NewReader(buffy.Bytes()[:headerSize]),
			src,
			bytes.NewReader(buffy.Bytes()[headerSize:]),
		),
		writer.FormDataContentType(),
		nil
}
