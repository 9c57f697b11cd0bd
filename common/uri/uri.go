package uri

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/pkg/errors"
)

var (
	endpointPattern  = regexp.MustCompile(`^(.+\.)?(?:cos|s3)[.-]([a-z0-9-]+)\.`)
	versionIDPattern = regexp.MustCompile(`[&;]`)
)

// URI identifies an object (or a prefix of objects) in a bucket. It accepts
// cos://, s3://, s3a:// and mem:// locations, file:// paths and http(s)
// endpoint URLs in either virtual-hosted or path style. Only the parts of
// http(s) URLs are percent-decoded.
type URI struct {
	raw       *url.URL
	location  string
	Scheme    string
	Bucket    string
	Key       string
	VersionID string
	Region    string
	// Endpoint is only set for http(s) locations, it is the host that serves
	// the bucket with the bucket name stripped for virtual-hosted URLs.
	Endpoint  string
	Secure    bool
	PathStyle bool
}

func Parse(s string) (*URI, error) {
	if s == "" {
		return nil, errors.Wrap(serrors.ErrInvalidURI, "uri cannot be empty")
	}
	if scheme, rest, ok := strings.Cut(s, "://"); ok {
		switch strings.ToLower(scheme) {
		case constant.SchemeCOS, constant.SchemeS3, constant.SchemeS3A, constant.SchemeMemory:
			return parseBucketURI(s, strings.ToLower(scheme), rest)
		}
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(serrors.ErrInvalidURI, "%s: %v", s, err)
	}
	ret := &URI{raw: u, location: s, Scheme: strings.ToLower(u.Scheme)}

	switch ret.Scheme {
	case constant.SchemeFile:
		if u.Path == "" {
			return nil, errors.Wrapf(serrors.ErrInvalidURI, "no path: %s", s)
		}
		ret.Key = u.Path
		return ret, nil
	case constant.SchemeHTTP, constant.SchemeHTTPS:
		return ret, ret.parseEndpointURL(s)
	default:
		return nil, errors.Wrapf(serrors.ErrInvalidURI, "unsupported scheme %q: %s", u.Scheme, s)
	}
}

// parseBucketURI splits scheme://bucket/key. The key is taken literally,
// so '%' and '?' are part of it, except for a trailing versionId query.
func parseBucketURI(s, scheme, rest string) (*URI, error) {
	ret := &URI{location: s, Scheme: scheme}
	if i := strings.LastIndex(rest, "?"); i >= 0 {
		if v := parseVersionID(rest[i+1:]); v != "" {
			rest, ret.VersionID = rest[:i], v
		}
	}
	ret.Bucket, ret.Key, _ = strings.Cut(rest, "/")
	if ret.Bucket == "" {
		return nil, errors.Wrapf(serrors.ErrInvalidURI, "no bucket: %s", s)
	}
	return ret, nil
}

func (u *URI) parseEndpointURL(s string) error {
	host := u.raw.Hostname()
	if host == "" {
		return errors.Wrapf(serrors.ErrInvalidURI, "no hostname: %s", s)
	}
	m := endpointPattern.FindStringSubmatch(host)
	if m == nil {
		return errors.Wrapf(serrors.ErrInvalidURI, "hostname does not appear to be a valid object store endpoint: %s", s)
	}
	u.Secure = u.Scheme == constant.SchemeHTTPS

	prefix := m[1]
	if prefix == "" {
		u.PathStyle = true
		u.Endpoint = u.raw.Host
		path := u.raw.EscapedPath()
		if path != "" && path != "/" {
			rest := path[1:]
			bucket, key, _ := strings.Cut(rest, "/")
			var err error
			if u.Bucket, err = decode(bucket); err != nil {
				return err
			}
			if u.Key, err = decode(key); err != nil {
				return err
			}
		}
	} else {
		u.Bucket = strings.TrimSuffix(prefix, ".")
		u.Endpoint = strings.TrimPrefix(u.raw.Host, prefix)
		u.Key = strings.TrimPrefix(u.raw.Path, "/")
	}

	u.VersionID = parseVersionID(u.raw.RawQuery)
	if region := m[2]; region != "amazonaws" {
		u.Region = region
	}
	if u.Bucket == "" {
		return errors.Wrapf(serrors.ErrInvalidURI, "no bucket: %s", s)
	}
	return nil
}

func parseVersionID(query string) string {
	if query == "" {
		return ""
	}
	for _, param := range versionIDPattern.Split(query, -1) {
		if v, ok := strings.CutPrefix(param, "versionId="); ok {
			decoded, err := url.QueryUnescape(v)
			if err != nil {
				return v
			}
			return decoded
		}
	}
	return ""
}

func decode(s string) (string, error) {
	if !strings.Contains(s, "%") {
		return s, nil
	}
	d, err := url.PathUnescape(s)
	if err != nil {
		return "", errors.Wrapf(serrors.ErrInvalidURI, "invalid percent-encoded string %q", s)
	}
	return d, nil
}

// IsPrefix reports whether the location names a "directory" of objects
// rather than a single object.
func (u *URI) IsPrefix() bool {
	return u.Key == "" || strings.HasSuffix(u.Key, "/")
}

func (u *URI) String() string {
	return u.location
}
