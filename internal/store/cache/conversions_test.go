package cache

import (
	"errors"
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func TestKey(t *testing.T) {
	base := Request{Data: []byte("image bytes"), InputExtension: ".png", Extension: "webp", Width: intp(100)}

	if Key(base) != Key(base) {
		t.Fatal("key must be deterministic")
	}
	if !strings.HasPrefix(Key(base), "conversion-") {
		t.Fatalf("unexpected key: %s", Key(base))
	}

	variants := map[string]Request{
		"data":            {Data: []byte("other bytes"), InputExtension: ".png", Extension: "webp", Width: intp(100)},
		"input extension": {Data: base.Data, InputExtension: ".jpg", Extension: "webp", Width: intp(100)},
		"extension":       {Data: base.Data, InputExtension: ".png", Extension: "avif", Width: intp(100)},
		"width":           {Data: base.Data, InputExtension: ".png", Extension: "webp", Width: intp(101)},
		"no width":        {Data: base.Data, InputExtension: ".png", Extension: "webp"},
		"height":          {Data: base.Data, InputExtension: ".png", Extension: "webp", Height: intp(100)},
		"quality":         {Data: base.Data, InputExtension: ".png", Extension: "webp", Width: intp(100), Quality: intp(80)},
	}

	for name, req := range variants {
		if Key(req) == Key(base) {
			t.Fatalf("%s change must change the key", name)
		}
	}
}

func TestDecodeConversion(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{name: "valid", data: `{"content_type":"image/webp","data":"UklGRg=="}`},
		{name: "malformed json", data: `{"content_type":`, invalid: true},
		{name: "missing content type", data: `{"data":"UklGRg=="}`, invalid: true},
		{name: "missing data", data: `{"content_type":"image/webp"}`, invalid: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conv, err := decodeConversion([]byte(test.data))
			if test.invalid {
				if !errors.Is(err, ErrInvalidEntry) {
					t.Fatalf("expected ErrInvalidEntry, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Error())
			}
			if conv.ContentType != "image/webp" || string(conv.Data) != "RIFF" {
				t.Fatalf("unexpected conversion: %+v", conv)
			}
		})
	}
}
