package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/droplab/tidal/ql"
	"github.com/droplab/tidal/storage"
	"github.com/droplab/tidal/tlog"
	"github.com/droplab/tidal/util/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// resolveDataset decodes a local file or an s3://bucket/key URL.
func resolveDataset(ctx context.Context, arg string) (*tlog.Dataset, error) {
	ctx = log.AddTags(ctx, "source", arg)
	rest, ok := strings.CutPrefix(arg, "s3://")
	if !ok {
		ds, err := tlog.DecodeFile(arg)
		if err != nil {
			return nil, err
		}
		log.Debugf(ctx, "decoded %d streams", len(ds.Streams))
		return ds, nil
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed s3 URL %q: want s3://bucket/key", arg)
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.S3.Endpoint == "" {
		return nil, fmt.Errorf("s3 source %q requires an [s3] section in the config file", arg)
	}
	mc, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	store := storage.NewS3Store(mc, bucket)
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, tlog.SourceUnavailableError{Path: arg, Err: err}
	}
	defer rc.Close()
	ds, err := tlog.Decode(rc)
	if err != nil {
		return nil, err
	}
	log.Debugf(ctx, "decoded %d streams", len(ds.Streams))
	return ds, nil
}

// selectSignals returns the dataset's signals in name order, restricted by an
// optional filter expression and an optional explicit name list.
func selectSignals(ds *tlog.Dataset, filter string, names []string) ([]*tlog.Signal, error) {
	match := ql.Predicate(func(*tlog.Signal) bool { return true })
	if filter != "" {
		compiled, err := ql.Compile(filter)
		if err != nil {
			return nil, err
		}
		match = compiled
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	signals := []*tlog.Signal{}
	for _, name := range ds.Names() {
		sig := ds.Streams[name]
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		if match(sig) {
			signals = append(signals, sig)
		}
	}
	return signals, nil
}
