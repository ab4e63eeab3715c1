package remote

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/models"
)

// SSMAPI is the subset of the AWS SSM client used by SSMClient.
// It exists so tests can substitute a fake.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMClient implements Client on AWS Systems Manager Parameter Store.
// Values are stored as SecureString and decrypted on read.
type SSMClient struct {
	api SSMAPI
	log logging.Logger
}

// SSMOption customizes an SSMClient.
type SSMOption func(*SSMClient)

// WithSSMAPI sets a custom API implementation (for testing).
func WithSSMAPI(api SSMAPI) SSMOption {
	return func(c *SSMClient) { c.api = api }
}

// NewSSMClient builds an SSM-backed Client authenticated with the session's
// remote credential. The credential's region wins over the configured
// default when both are set.
func NewSSMClient(ctx context.Context, cred models.RemoteCredential, defaultRegion string, log logging.Logger, opts ...SSMOption) (*SSMClient, error) {
	c := &SSMClient{log: log}
	for _, opt := range opts {
		opt(c)
	}
	if c.api != nil {
		return c, nil
	}

	region := cred.Region
	if region == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cred.AccessKeyID, cred.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	c.api = ssm.NewFromConfig(cfg)
	return c, nil
}

func (c *SSMClient) Get(ctx context.Context, key string) (string, error) {
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", classify(err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: parameter has no value", ErrUnavailable)
	}
	return *out.Parameter.Value, nil
}

func (c *SSMClient) Put(ctx context.Context, key, value string, overwrite bool) error {
	_, err := c.api.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(key),
		Value:     aws.String(value),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (c *SSMClient) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(key),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (c *SSMClient) ListByPrefix(ctx context.Context, prefix string) ([]KV, error) {
	var result []KV
	var next *string

	for {
		out, err := c.api.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(prefix),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      next,
		})
		if err != nil {
			return nil, classify(err)
		}
		for _, p := range out.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			result = append(result, KV{Key: *p.Name, Value: *p.Value})
		}
		if out.NextToken == nil || *out.NextToken == "" {
			return result, nil
		}
		next = out.NextToken
	}
}
