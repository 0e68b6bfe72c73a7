package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vpatch/internal/config"
	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/snapshot"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// openStore resolves uri against the configured snapshot directory.
func (a *app) openStore(ctx context.Context, uri string) (snapshot.Store, string, error) {
	var opts snapshot.OpenOptions
	if a.cfg.Snapshots.S3.Region != "" {
		client, err := newS3Client(ctx, a.cfg.Snapshots.S3)
		if err != nil {
			return nil, "", err
		}
		opts.S3 = client
	}
	return snapshot.Open(a.cfg.SnapshotPath(uri), opts)
}

// loadSnapshot reads the snapshot at uri.
func (a *app) loadSnapshot(ctx context.Context, uri string) (*vdom.VNode, error) {
	store, name, err := a.openStore(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	v, err := snapshot.Load(ctx, store, name, a.cfg.Limits())
	if err != nil {
		return nil, err
	}
	a.logger.Debug("snapshot loaded", "uri", uri, "format", snapshot.FormatOf(name))
	return v, nil
}

// saveSnapshot writes v to uri in the format its extension selects.
func (a *app) saveSnapshot(ctx context.Context, uri string, v *vdom.VNode) error {
	store, name, err := a.openStore(ctx, uri)
	if err != nil {
		return err
	}
	defer store.Close()
	return snapshot.Save(ctx, store, name, v)
}

// newS3Client builds an S3 client from the snapshot configuration.
// Credentials resolve through the default AWS chain: environment, shared
// config and credentials files, SSO, and instance roles.
func newS3Client(ctx context.Context, c config.S3Config) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Region))
	if err != nil {
		return nil, errors.New("E232").WithDetail("loading AWS configuration").Wrap(err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = c.PathStyle
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}
