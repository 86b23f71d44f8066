// Package mainconfig centralizes dependency wiring shared by the bot and
// API binaries: AWS SDK setup, session store selection, and the
// conversation service itself.
package mainconfig

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	appconfig "github.com/catturtle123/discord-github-issue-bot/internal/config"
	"github.com/catturtle123/discord-github-issue-bot/internal/conversation"
	"github.com/catturtle123/discord-github-issue-bot/internal/session"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// LoadAWSConfig initializes the AWS SDK so both binaries share the same
// LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				if service == dynamodb.ServiceID {
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			},
		)
	}

	return awsCfg, nil
}

// BuildSessionStore selects the session backend from configuration.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return session.NewRedisStore(client, cfg.SessionTTL, nil), nil
	case "dynamo":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg)
		return session.NewDynamoStore(client, cfg.SessionsTable), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildService assembles the conversation service: LLM client, pipeline,
// session store, and optional archive sink.
func BuildService(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, metrics *agent.Metrics, opts ...conversation.Option) (*conversation.Service, error) {
	llmClient, err := agent.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	store, err := BuildSessionStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	pipeline := agent.NewPipeline(llmClient, cfg.GeminiModel, logger,
		agent.WithMetrics(metrics),
		agent.WithMaxTokens(int32(cfg.LLMMaxTokens)))
	opts = append(opts, conversation.WithMetrics(metrics))
	return conversation.NewService(store, pipeline, logger, opts...), nil
}
