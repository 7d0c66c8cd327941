package resource

import "testing"

// TestClassify verifies the fixed classification precedence:
// failure > image > style > script > page > other.
func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		errored     bool
		contentType string
		urlPath     string
		want        Type
	}{
		{
			name:        "errored wins over everything",
			errored:     true,
			contentType: "image/png",
			want:        TypeFailure,
		},
		{
			name:        "image by content type regardless of extension",
			contentType: "image/png",
			urlPath:     "/static/app.js",
			want:        TypeImage,
		},
		{
			name:        "image with charset parameter",
			contentType: "image/svg+xml; charset=utf-8",
			want:        TypeImage,
		},
		{
			name:        "css",
			contentType: "text/css",
			urlPath:     "/style.css",
			want:        TypeStyle,
		},
		{
			name:        "explicit javascript",
			contentType: "application/javascript",
			want:        TypeScript,
		},
		{
			name:        "octet stream with js extension",
			contentType: "application/octet-stream",
			urlPath:     "/bundle.js",
			want:        TypeScript,
		},
		{
			name:        "plain text with js extension",
			contentType: "text/plain",
			urlPath:     "/lib/jquery.js",
			want:        TypeScript,
		},
		{
			// The .js branch is evaluated before the page branch; this
			// ordering is a deliberate contract, not an accident.
			name:        "text html with js extension",
			contentType: "text/html",
			urlPath:     "/weird.js",
			want:        TypeScript,
		},
		{
			name:        "octet stream without js extension",
			contentType: "application/octet-stream",
			urlPath:     "/download.bin",
			want:        TypeOther,
		},
		{
			name:        "plain html",
			contentType: "text/html; charset=iso-8859-1",
			urlPath:     "/index.html",
			want:        TypePage,
		},
		{
			name:        "json is other",
			contentType: "application/json",
			want:        TypeOther,
		},
		{
			name:        "missing content type",
			contentType: "",
			want:        TypeUndefined,
		},
		{
			name:        "unparsable content type",
			contentType: "garbage",
			want:        TypeUndefined,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.errored, tt.contentType, tt.urlPath)
			if got != tt.want {
				t.Errorf("Classify(%v, %q, %q) = %q, want %q",
					tt.errored, tt.contentType, tt.urlPath, got, tt.want)
			}
		})
	}
}

// TestTypeValid checks the cache-facing type name validation.
func TestTypeValid(t *testing.T) {
	t.Parallel()

	valid := []Type{
		TypePage, TypeImage, TypeScript, TypeStyle, TypeInlineScript,
		TypeInlineStyle, TypeDerived, TypeOther, TypeFailure, TypeUndefined,
	}
	for _, typ := range valid {
		if !typ.Valid() {
			t.Errorf("expected %q to be valid", typ)
		}
	}

	if Type("bogus").Valid() {
		t.Error("expected unknown type name to be invalid")
	}
	if Type("").Valid() {
		t.Error("expected empty type name to be invalid")
	}
}
