// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of s3touch.
//
// s3touch is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package factory builds the AWS clients a run needs from one shared
// configuration.
package factory

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/jeremyhahn/s3touch/pkg/adapters"
)

// DefaultRegion is used when no region is configured anywhere.
const DefaultRegion = "us-east-1"

// pemPrefix marks a CACert value holding certificates inline instead of a path.
const pemPrefix = "-----BEGIN"

// Options controls client construction.
type Options struct {
	Region string
	// Endpoint overrides the service endpoint for all clients, e.g. a
	// localstack URL. S3 switches to path-style addressing when set.
	Endpoint  string
	Proxy     string
	AccessKey string
	SecretKey string

	// CACert is a PEM bundle trusted in addition to the system roots, given
	// either as a file path or inline.
	CACert             string
	InsecureSkipVerify bool
}

// Clients holds the service clients for one run.
type Clients struct {
	Config aws.Config
	S3     *s3.Client
	SNS    *sns.Client
	Lambda *lambda.Client
}

// LoadConfig resolves the shared AWS configuration. Calls are never retried
// by the SDK.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryMaxAttempts(1),
	}

	var proxyURL *url.URL
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil || u.Host == "" {
			return aws.Config{}, ErrInvalidProxy
		}
		proxyURL = u
	}

	tlsBuilder := adapters.NewTLSConfig().WithInsecureSkipVerify(opts.InsecureSkipVerify)
	if strings.HasPrefix(strings.TrimSpace(opts.CACert), pemPrefix) {
		tlsBuilder.WithCAPEM([]byte(opts.CACert))
	} else {
		tlsBuilder.WithCAFile(opts.CACert)
	}
	tlsConfig, err := tlsBuilder.Build()
	if err != nil {
		return aws.Config{}, err
	}

	if proxyURL != nil || tlsConfig != nil {
		client := awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			if proxyURL != nil {
				tr.Proxy = http.ProxyURL(proxyURL)
			}
			if tlsConfig != nil {
				tr.TLSClientConfig = tlsConfig
			}
		})
		loadOpts = append(loadOpts, config.WithHTTPClient(client))
	}

	if opts.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.Endpoint))
	}

	switch {
	case opts.AccessKey != "" && opts.SecretKey != "":
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	case opts.AccessKey != "" || opts.SecretKey != "":
		return aws.Config{}, ErrIncompleteCredentials
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// New creates the S3, SNS and Lambda clients.
func New(ctx context.Context, opts Options) (*Clients, error) {
	cfg, err := LoadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Clients{
		Config: cfg,
		S3: s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = opts.Endpoint != ""
		}),
		SNS:    sns.NewFromConfig(cfg),
		Lambda: lambda.NewFromConfig(cfg),
	}, nil
}
