package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"

	"listing_intake/internal/app"
	"listing_intake/internal/domain"
	"listing_intake/internal/form"
)

var errUnsupportedMedia = errors.New("unsupported content type")

// readSubmission turns a multipart, urlencoded or JSON body into a
// submission plus any uploaded files.
func readSubmission(r *http.Request, maxBytes int64) (*form.Submission, []app.File, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, nil, err
		}
		defer r.MultipartForm.RemoveAll()
		files, err := readFiles(r.MultipartForm.File)
		if err != nil {
			return nil, nil, err
		}
		return fromValues(r.MultipartForm.Value), files, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, err
		}
		return fromValues(r.PostForm), nil, nil

	case "application/json", "":
		var m map[string]any
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				return form.NewSubmission(), nil, nil
			}
			return nil, nil, err
		}
		return form.SubmissionFromMap(m), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", errUnsupportedMedia, ct)
}

// fromValues keeps single values as strings; repeated keys become lists.
func fromValues(v url.Values) *form.Submission {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sub := form.NewSubmission()
	for _, k := range keys {
		vals := v[k]
		switch len(vals) {
		case 0:
		case 1:
			sub.Set(k, vals[0])
		default:
			list := make([]any, len(vals))
			for i, s := range vals {
				list[i] = s
			}
			sub.Set(k, list)
		}
	}
	return sub
}

func readFiles(fs map[string][]*multipart.FileHeader) ([]app.File, error) {
	var out []app.File
	for field, headers := range fs {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, app.File{Field: field, Asset: domain.Asset{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}
