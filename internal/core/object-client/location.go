package objectclient

import (
	"errors"
	"fmt"
	"strings"
)

const scheme = "s3://"

// ErrInvalidLocation is returned by ParseLocation for anything that is not s3://bucket[/key].
var ErrInvalidLocation = errors.New("invalid object location")

// Location addresses an object (or, with an empty Key, a bucket) in object storage.
type Location struct {
	Bucket string
	Key    string
}

// ParseLocation parses "s3://bucket" or "s3://bucket/key/with/slashes".
// It fails on a missing scheme, an empty bucket, or a bucket containing characters
// outside [a-z0-9.-].
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, scheme) {
		return Location{}, fmt.Errorf("%w: %q has no %s scheme", ErrInvalidLocation, raw, scheme)
	}
	bucket, key, _ := strings.Cut(strings.TrimPrefix(raw, scheme), "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("%w: %q has no bucket", ErrInvalidLocation, raw)
	}
	for _, r := range bucket {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '.') {
			return Location{}, fmt.Errorf("%w: bad bucket name %q", ErrInvalidLocation, bucket)
		}
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// HasObject reports whether the location points at an object rather than a bare bucket.
func (l Location) HasObject() bool {
	return l.Key != ""
}

func (l Location) String() string {
	if l.Key == "" {
		return scheme + l.Bucket
	}
	return scheme + l.Bucket + "/" + l.Key
}
