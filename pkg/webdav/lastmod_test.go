package webdav

import (
	"errors"
	"testing"
	"time"
)

func TestExtractLastModified(t *testing.T) {
	want := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	cases := map[string]string{
		"prefixed":     `<d:multistatus><d:getlastmodified>Tue, 02 Jan 2024 15:04:05 GMT</d:getlastmodified></d:multistatus>`,
		"upper prefix": `<D:getlastmodified>Tue, 02 Jan 2024 15:04:05 GMT</D:getlastmodified>`,
		"no prefix":    `<getlastmodified xmlns="DAV:">Tue, 02 Jan 2024 15:04:05 GMT</getlastmodified>`,
		"lower case":   `<lp1:GETLASTMODIFIED> Tue, 02 Jan 2024 15:04:05 GMT </lp1:getlastmodified>`,
		"rfc3339":      `<d:getlastmodified>2024-01-02T15:04:05Z</d:getlastmodified>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractLastModified(body)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(want) {
				t.Fatalf("got %v, want %v", got, want)
			}
		})
	}
}

func TestExtractLastModifiedMissing(t *testing.T) {
	for _, body := range []string{"", "<d:multistatus/>", "<d:getlastmodified></d:getlastmodified>", "<d:getlastmodified>yesterday</d:getlastmodified>"} {
		if _, err := ExtractLastModified(body); !errors.Is(err, ErrNoLastModified) {
			t.Errorf("body %q: expected ErrNoLastModified, got %v", body, err)
		}
	}
}
