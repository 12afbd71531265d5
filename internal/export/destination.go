package export

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
)

const gcsScheme = "gs://"

// Destination is a local file path or a Cloud Storage object.
type Destination struct {
	Path   string
	Bucket string
	Object string
}

func ParseDestination(dest string) (Destination, error) {
	dest = strings.TrimSpace(dest)

	if dest == "" {
		return Destination{}, errors.New("export destination cannot be empty")
	}

	if !strings.HasPrefix(dest, gcsScheme) {
		return Destination{Path: dest}, nil
	}

	bucket, object, _ := strings.Cut(strings.TrimPrefix(dest, gcsScheme), "/")

	if bucket == "" || object == "" {
		return Destination{}, errors.Newf("invalid Cloud Storage destination '%s' (expected gs://bucket/object)", dest)
	}

	return Destination{Bucket: bucket, Object: object}, nil
}

func (d Destination) Remote() bool {
	return d.Bucket != ""
}

func (d Destination) String() string {
	if d.Remote() {
		return gcsScheme + d.Bucket + "/" + d.Object
	}

	return d.Path
}

// ToDestination writes the records to a local file or to Cloud Storage. When
// format is empty, it is inferred from the destination extension.
func ToDestination(ctx context.Context, dest string, format Format, records []Record) (Destination, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return Destination{}, err
	}

	if format == "" {
		format = FormatFromPath(d.name())
	}

	var buf bytes.Buffer

	if err := Write(&buf, format, records); err != nil {
		return Destination{}, err
	}

	if d.Remote() {
		return d, upload(ctx, d, &buf)
	}

	if dir := filepath.Dir(d.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Destination{}, errors.Wrap(err, "could not create export directory")
		}
	}

	if err := os.WriteFile(d.Path, buf.Bytes(), 0o644); err != nil {
		return Destination{}, errors.Wrapf(err, "could not write %s", d.Path)
	}

	return d, nil
}

func (d Destination) name() string {
	if d.Remote() {
		return d.Object
	}

	return d.Path
}

func upload(ctx context.Context, d Destination, r io.Reader) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return errors.Wrap(err, "could not create Cloud Storage client")
	}

	defer client.Close()

	wr := client.Bucket(d.Bucket).Object(d.Object).NewWriter(ctx)

	if _, err := io.Copy(wr, r); err != nil {
		wr.Close()

		return errors.Wrapf(err, "could not upload %s", d)
	}
	if err := wr.Close(); err != nil {
		return errors.Wrapf(err, "could not upload %s", d)
	}

	return nil
}
