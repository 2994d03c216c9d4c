package storage

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURI is returned for object URIs without a bucket or key.
var ErrInvalidURI = errors.New("storage: invalid object uri")

// Location points at one object in a bucket.
type Location struct {
	// Scheme is the backend named by the URI: s3, gs or minio.
	Scheme string
	Bucket string
	Key    string
}

// IsObjectURI reports whether raw uses one of the object storage schemes.
func IsObjectURI(raw string) bool {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return false
	}
	switch strings.ToLower(scheme) {
	case "s3", "gs", "minio":
		return true
	}
	return false
}

// ParseURI splits "s3://bucket/path/to/key" style URIs.
func ParseURI(raw string) (Location, error) {
	if !IsObjectURI(raw) {
		return Location{}, ErrInvalidURI
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, errors.Join(ErrInvalidURI, err)
	}

	loc := Location{
		Scheme: strings.ToLower(u.Scheme),
		Bucket: u.Host,
		Key:    strings.TrimPrefix(u.Path, "/"),
	}
	if loc.Bucket == "" || loc.Key == "" {
		return Location{}, ErrInvalidURI
	}
	return loc, nil
}

// String formats the location back into a URI.
func (l Location) String() string {
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}
