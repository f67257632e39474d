package janus

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"reflect"
	"sort"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gustavorviana/JanusRequest/internal/memberpath"
)

// Translator is a serializer/deserializer pair bound to one media type.
// Implementations must be safe for concurrent use.
type Translator interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// ContentTypeMarshaler is implemented by translators whose Content-Type
// header carries per-payload parameters (multipart boundaries). The pipeline
// prefers it over Marshal when present.
type ContentTypeMarshaler interface {
	MarshalWithContentType(v any) (data []byte, contentType string, err error)
}

// JSONTranslator serializes through encoding/json without HTML escaping.
type JSONTranslator struct{}

func (t *JSONTranslator) ContentType() string { return MediaTypeJSON }

func (t *JSONTranslator) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (t *JSONTranslator) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// XMLTranslator serializes through encoding/xml.
type XMLTranslator struct{}

func (t *XMLTranslator) ContentType() string { return MediaTypeXML }

func (t *XMLTranslator) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

func (t *XMLTranslator) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}

// FormTranslator renders application/x-www-form-urlencoded bodies. Structs
// are flattened through the member index with the default include policy;
// maps and url.Values are encoded with sorted keys for determinism.
type FormTranslator struct {
	Formats Formats
}

func (t *FormTranslator) ContentType() string { return MediaTypeForm }

func (t *FormTranslator) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case url.Values:
		return []byte(m.Encode()), nil
	case map[string]string:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := NewValues()
		for _, k := range keys {
			vals.Set(k, m[k])
		}
		return []byte(vals.Encode()), nil
	}
	vals, err := flattenValues(v, QueryModeDefault, true, t.formats())
	if err != nil {
		return nil, err
	}
	return []byte(vals.Encode()), nil
}

func (t *FormTranslator) Unmarshal(data []byte, v any) error {
	parsed, err := url.ParseQuery(string(data))
	if err != nil {
		return err
	}
	switch out := v.(type) {
	case *url.Values:
		*out = parsed
		return nil
	case *map[string]string:
		m := make(map[string]string, len(parsed))
		for k := range parsed {
			m[k] = parsed.Get(k)
		}
		*out = m
		return nil
	}
	return fmt.Errorf("janus: form decoding supports *url.Values or *map[string]string, got %T", v)
}

func (t *FormTranslator) formats() Formats {
	if t.Formats == (Formats{}) {
		return DefaultFormats()
	}
	return t.Formats
}

// QueryStringTranslator backs the internal query-string pseudo media type.
// The pipeline normally diverts such bodies into the URL; Marshal exists so
// the binding behaves like any other translator.
type QueryStringTranslator struct {
	Formats Formats
}

func (t *QueryStringTranslator) ContentType() string { return MediaTypeQueryString }

func (t *QueryStringTranslator) Marshal(v any) ([]byte, error) {
	f := t.Formats
	if f == (Formats{}) {
		f = DefaultFormats()
	}
	vals, err := flattenValues(v, QueryModeDefault, true, f)
	if err != nil {
		return nil, err
	}
	return []byte(vals.Encode()), nil
}

func (t *QueryStringTranslator) Unmarshal(data []byte, v any) error {
	ft := FormTranslator{Formats: t.Formats}
	return ft.Unmarshal(data, v)
}

// MultipartTranslator renders multipart/form-data bodies. Field names honor
// the `form` tag; []byte members become file parts with a sniffed content
// type, nested structs are embedded as JSON parts, everything else is a
// plain formatted field.
type MultipartTranslator struct {
	Formats Formats
}

func (t *MultipartTranslator) ContentType() string { return MediaTypeMultipart }

// Marshal renders with a generated boundary; the matching Content-Type is
// lost, so the pipeline uses MarshalWithContentType instead.
func (t *MultipartTranslator) Marshal(v any) ([]byte, error) {
	data, _, err := t.MarshalWithContentType(v)
	return data, err
}

func (t *MultipartTranslator) MarshalWithContentType(v any) ([]byte, string, error) {
	if v == nil {
		return nil, "", fmt.Errorf("janus: nil multipart body")
	}
	f := t.Formats
	if f == (Formats{}) {
		f = DefaultFormats()
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	idx := memberpath.IndexOf(v)
	rv := reflect.ValueOf(v)
	for _, m := range idx.Members {
		if m.Kind != memberpath.KindField || m.PathOnly {
			continue
		}
		mv, ok := m.Read(rv)
		if !ok {
			continue
		}
		if err := t.writePart(w, m, mv, f); err != nil {
			w.Close()
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (t *MultipartTranslator) Unmarshal(data []byte, v any) error {
	return fmt.Errorf("janus: multipart decoding is not supported")
}

func (t *MultipartTranslator) writePart(w *multipart.Writer, m *memberpath.Member, mv reflect.Value, f Formats) error {
	name := m.FormFieldName()

	for mv.Kind() == reflect.Pointer {
		if mv.IsNil() {
			return w.WriteField(name, "")
		}
		mv = mv.Elem()
	}

	if mv.Kind() == reflect.Slice && mv.Type().Elem().Kind() == reflect.Uint8 {
		data := mv.Bytes()
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, name))
		h.Set("Content-Type", mimetype.Detect(data).String())
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		_, err = part.Write(data)
		return err
	}

	if !m.Leaf() {
		data, err := (&JSONTranslator{}).Marshal(mv.Interface())
		if err != nil {
			return err
		}
		return w.WriteField(name, string(data))
	}

	return w.WriteField(name, FormatValue(mv.Interface(), f))
}
