// Package dynamostore stores users and posts in Amazon DynamoDB.
//
// Two tables are used:
//
//	users: partition key "email" (S), global secondary index "id-index"
//	       on "id" (S) with KEYS_ONLY projection
//	posts: partition key "id" (S)
//
// Next to each user item the users table holds a pointer item keyed
// "id#<user id>" whose "user_email" attribute names the user's email. The
// pointer is written in the same transaction as the user, so id lookups use
// a consistent GetItem. The id-index is eventually consistent and is kept
// for operators only; pointer items carry no "id" and stay out of it.
//
// Every item carries a numeric "version" attribute. Creates are guarded by
// attribute_not_exists on the partition key and updates by a condition on
// the version, so concurrent writers never overwrite each other silently.
package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/yndnr/postvote-go/internal/core/domain"
)

// UserIDIndex is the global secondary index on the users table's id
// attribute. The stores never read it.
const UserIDIndex = "id-index"

// API is the subset of the DynamoDB client used by the stores.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Config configures the DynamoDB connection and table names.
type Config struct {
	Region     string
	Endpoint   string // optional, e.g. http://localhost:8000 for DynamoDB Local
	UsersTable string
	PostsTable string

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a DynamoDB client from cfg.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Ping checks that both tables are reachable.
func Ping(ctx context.Context, api API, cfg Config) error {
	for _, table := range []string{cfg.UsersTable, cfg.PostsTable} {
		if _, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}); err != nil {
			return storageError(err, table)
		}
	}
	return nil
}

// conditionFailed reports whether err is a failed condition check and
// returns the item that was stored at the time, if DynamoDB sent it.
func conditionFailed(err error) (map[string]types.AttributeValue, bool) {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ccf.Item, true
	}
	return nil, false
}

// transactionConditionFailed reports whether err is a cancelled transaction
// in which at least one condition check failed.
func transactionConditionFailed(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// storageError wraps an SDK error with the table name and API error code.
func storageError(err error, table string) error {
	details := "table " + table
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		details += ": " + apiErr.ErrorCode()
	}
	return domain.ErrStorageError.WithDetails(details).WithCause(err)
}
