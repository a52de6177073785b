package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// UpstreamConfig locates the snapshot endpoint.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`

	// BaseURLParameter is the Parameter Store name read in prod.
	BaseURLParameter string `mapstructure:"base_url_parameter"`
	AWSRegion        string `mapstructure:"aws_region"`
}

// ParameterStore is the part of *ssm.Client used here.
type ParameterStore interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewParameterStore builds an SSM client from the default AWS credential chain.
func NewParameterStore(ctx context.Context, region string) (*ssm.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// ResolveBaseURL returns the upstream base URL. In prod it is read (decrypted)
// from Parameter Store; BaseURL is used otherwise and whenever the parameter
// cannot be read.
func (u UpstreamConfig) ResolveBaseURL(ctx context.Context, env string, store ParameterStore) string {
	if env != "prod" || store == nil || u.BaseURLParameter == "" {
		return u.BaseURL
	}
	if v := getParameterStoreValue(ctx, store, u.BaseURLParameter, true); v != "" {
		return strings.TrimRight(v, "/")
	}
	return u.BaseURL
}

func getParameterStoreValue(ctx context.Context, store ParameterStore, name string, decrypt bool) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := store.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return ""
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return ""
	}
	return *result.Parameter.Value
}
