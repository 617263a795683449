package indexfile

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/janelia-flyem/subvol/subvol"
)

// Write encodes idx fully in memory and then persists it to dest, which is either a
// local path or a bucket URL such as gs://bucket/dir/index.json.  A failed write leaves
// no partial index at dest.
func Write(ctx context.Context, idx *IndexFile, dest string, format Format, compress subvol.Compression) error {
	data, err := Encode(idx, format, compress)
	if err != nil {
		return err
	}
	if err := WriteBytes(ctx, dest, data); err != nil {
		return err
	}
	subvol.Infof("Wrote %s index of %d blocks to %s (%s)\n", format, len(idx.Blocks), dest, humanize.Bytes(uint64(len(data))))
	return nil
}

// Read loads and decodes the JSON or binary index at src, a local path or bucket URL.
func Read(ctx context.Context, src string) (*IndexFile, error) {
	data, err := ReadBytes(ctx, src)
	if err != nil {
		return nil, err
	}
	return Decode(data, src)
}

// IsBucketURL returns true if dest names a blob in a bucket rather than a local path.
func IsBucketURL(dest string) bool {
	return strings.Contains(dest, "://")
}

// WriteBytes atomically stores data at dest.  Local files are written to a temporary file
// in the destination directory and renamed into place.  Bucket writes are cancelled on
// error so the blob is never committed.
func WriteBytes(ctx context.Context, dest string, data []byte) error {
	if IsBucketURL(dest) {
		return writeBucket(ctx, dest, data)
	}
	return writeLocal(dest, data)
}

// ReadBytes returns the contents of a local path or bucket URL.
func ReadBytes(ctx context.Context, src string) ([]byte, error) {
	if !IsBucketURL(src) {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, &subvol.IOError{Op: "read index", Path: src, Err: err}
		}
		return data, nil
	}
	bucketURL, key, err := splitBucketURL(src)
	if err != nil {
		return nil, err
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, &subvol.IOError{Op: "open bucket", Path: bucketURL, Err: err}
	}
	defer bucket.Close()
	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, &subvol.IOError{Op: "read index", Path: src, Err: err}
	}
	return data, nil
}

func writeLocal(dest string, data []byte) error {
	dir, name := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}
	if name == "" {
		return &subvol.ConfigError{Field: "output path", Value: dest, Msg: "must name a file"}
	}
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return &subvol.IOError{Op: "create", Path: dest, Err: err}
	}
	tmpPath := f.Name()
	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0644)
	}
	if err == nil {
		err = os.Rename(tmpPath, dest)
	}
	if err != nil {
		os.Remove(tmpPath)
		return &subvol.IOError{Op: "write", Path: dest, Err: err}
	}
	return nil
}

// splitBucketURL splits a blob URL into the URL of its bucket and the blob key.  For
// file:// URLs the bucket is the blob's directory.
func splitBucketURL(ref string) (bucketURL, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", "", &subvol.ConfigError{Field: "bucket url", Value: ref, Msg: err.Error()}
	}
	if u.Scheme == "file" {
		var dir string
		dir, key = path.Split(u.Path)
		bucketURL = "file://" + dir
	} else {
		key = strings.TrimPrefix(u.Path, "/")
		bucketURL = u.Scheme + "://" + u.Host
	}
	if u.RawQuery != "" {
		bucketURL += "?" + u.RawQuery
	}
	if key == "" {
		return "", "", &subvol.ConfigError{Field: "bucket url", Value: ref, Msg: "no object key"}
	}
	return bucketURL, key, nil
}

func writeBucket(ctx context.Context, dest string, data []byte) error {
	bucketURL, key, err := splitBucketURL(dest)
	if err != nil {
		return err
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return &subvol.IOError{Op: "open bucket", Path: bucketURL, Err: err}
	}
	defer bucket.Close()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := bucket.NewWriter(wctx, key, nil)
	if err != nil {
		return &subvol.IOError{Op: "create", Path: dest, Err: err}
	}
	if _, err := w.Write(data); err != nil {
		// Cancelling before Close aborts the commit, so the Close error carries nothing new.
		cancel()
		w.Close()
		return &subvol.IOError{Op: "write", Path: dest, Err: err}
	}
	if err := w.Close(); err != nil {
		return &subvol.IOError{Op: "write", Path: dest, Err: err}
	}
	return nil
}
