package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
	"github.com/sandeepkv93/product-media-catalog/internal/service"
)

const (
	multipartMemory = 8 << 20
	imagesField     = "images"
)

var errMalformedBody = errors.New("malformed request body")

// productForm is the field set of a create or update request, read either
// from a multipart form or from a JSON object.
type productForm struct {
	values   map[string]string
	variants json.RawMessage
	files    []media.File
	cleanup  func()
}

func readProductForm(r *http.Request) (*productForm, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return readMultipartForm(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, errMalformedBody
		}
		return formFromValues(r.PostForm), nil
	default:
		return readJSONForm(r)
	}
}

func readMultipartForm(r *http.Request) (*productForm, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, errMalformedBody
	}
	form := formFromValues(r.MultipartForm.Value)
	form.cleanup = func() { _ = r.MultipartForm.RemoveAll() }
	for _, fh := range r.MultipartForm.File[imagesField] {
		form.files = append(form.files, fileFromHeader(fh))
	}
	return form, nil
}

func fileFromHeader(fh *multipart.FileHeader) media.File {
	return media.File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

func formFromValues(values map[string][]string) *productForm {
	form := &productForm{values: map[string]string{}}
	for key, vs := range values {
		if len(vs) > 0 {
			form.values[key] = vs[0]
		}
	}
	if raw, ok := form.values["variants"]; ok {
		form.variants = json.RawMessage(raw)
	}
	return form
}

func readJSONForm(r *http.Request) (*productForm, error) {
	form := &productForm{values: map[string]string{}}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, errMalformedBody
	}
	for key, raw := range body {
		if key == "variants" {
			form.variants = raw
			continue
		}
		text, ok := jsonScalarText(raw)
		if ok {
			form.values[key] = text
		}
	}
	return form, nil
}

// jsonScalarText renders a JSON scalar the way it would arrive in a form
// field. null is treated as absent.
func jsonScalarText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(trimmed), true
}

func (f *productForm) close() {
	if f != nil && f.cleanup != nil {
		f.cleanup()
	}
}

func (f *productForm) get(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := f.values[key]; ok {
			return v, true
		}
	}
	return "", false
}

func (f *productForm) text(keys ...string) string {
	v, _ := f.get(keys...)
	return v
}

// float returns the parsed value, or nil when the field is absent or blank.
func (f *productForm) float(field string, keys ...string) (*float64, error) {
	raw, ok := f.get(keys...)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be a number")
	}
	return &v, nil
}

func (f *productForm) integer(field string, keys ...string) (*int, error) {
	raw, ok := f.get(keys...)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an integer")
	}
	return &v, nil
}

func (f *productForm) featured() *bool {
	raw, ok := f.get("isFeatured", "is_featured")
	if !ok {
		return nil
	}
	featured, _ := service.CoerceFeatured(raw)
	return &featured
}

func (f *productForm) createInput() (service.CreateProductInput, error) {
	price, err := f.float("price", "price")
	if err != nil {
		return service.CreateProductInput{}, err
	}
	discount, err := f.float("discountPrice", "discountPrice", "discount_price")
	if err != nil {
		return service.CreateProductInput{}, err
	}
	stock, err := f.integer("stock", "stock")
	if err != nil {
		return service.CreateProductInput{}, err
	}
	in := service.CreateProductInput{
		Name:        f.text("name"),
		Description: f.text("description"),
		Price:       price,
		Stock:       stock,
		Category:    f.text("category"),
		Brand:       f.text("brand"),
		Variants:    f.variants,
		Images:      f.files,
	}
	if discount != nil {
		in.DiscountPrice = *discount
	}
	if featured := f.featured(); featured != nil {
		in.IsFeatured = *featured
	}
	return in, nil
}

func (f *productForm) updateInput() (service.UpdateProductInput, error) {
	in := service.UpdateProductInput{
		Name:        f.text("name"),
		Description: f.text("description"),
		Category:    f.text("category"),
		Brand:       f.text("brand"),
		IsFeatured:  f.featured(),
		Variants:    f.variants,
		Images:      f.files,
	}
	floats := []struct {
		dst   *float64
		field string
		keys  []string
	}{
		{&in.Price, "price", []string{"price"}},
		{&in.DiscountPrice, "discountPrice", []string{"discountPrice", "discount_price"}},
		{&in.Rating, "rating", []string{"rating"}},
	}
	for _, fl := range floats {
		v, err := f.float(fl.field, fl.keys...)
		if err != nil {
			return service.UpdateProductInput{}, err
		}
		if v != nil {
			*fl.dst = *v
		}
	}
	stock, err := f.integer("stock", "stock")
	if err != nil {
		return service.UpdateProductInput{}, err
	}
	if stock != nil {
		in.Stock = *stock
	}
	return in, nil
}
