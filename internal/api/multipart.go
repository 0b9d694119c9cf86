package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// File is an upload passed through to the backend byte for byte.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type formField struct {
	name  string
	value string
	file  *File
}

func textField(name, value string) formField {
	return formField{name: name, value: value}
}

func intField(name string, value int) formField {
	return formField{name: name, value: strconv.Itoa(value)}
}

func fileField(name string, f *File) formField {
	return formField{name: name, file: f}
}

// encodeMultipart writes one part per field. Empty text fields and nil
// files are skipped so the backend applies its own defaults.
func encodeMultipart(fields []formField) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, f := range fields {
		if f.file == nil {
			if f.value == "" {
				continue
			}
			if err := w.WriteField(f.name, f.value); err != nil {
				return nil, "", err
			}
			continue
		}
		if f.file.Body == nil {
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.name, f.file.Name))
		ct := f.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.file.Body); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
