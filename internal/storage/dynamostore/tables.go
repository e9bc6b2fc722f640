package dynamostore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableWait bounds how long CreateTables waits for a table to become ACTIVE.
const tableWait = 2 * time.Minute

// CreateTables creates the users and posts tables if they do not exist and
// waits until both are active. Tables are created with on-demand billing.
func CreateTables(ctx context.Context, api API, cfg Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	inputs := []*dynamodb.CreateTableInput{
		{
			TableName:   aws.String(cfg.UsersTable),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				{
					IndexName: aws.String(UserIDIndex),
					KeySchema: []types.KeySchemaElement{
						{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
					},
					Projection: &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
				},
			},
		},
		{
			TableName:   aws.String(cfg.PostsTable),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
			},
		},
	}

	for _, in := range inputs {
		table := aws.ToString(in.TableName)
		_, err := api.CreateTable(ctx, in)
		var inUse *types.ResourceInUseException
		switch {
		case errors.As(err, &inUse):
			logger.Debug("dynamodb table already exists", "table", table)
		case err != nil:
			return storageError(err, table)
		default:
			logger.Info("dynamodb table created", "table", table)
		}

		waiter := dynamodb.NewTableExistsWaiter(api)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName}, tableWait); err != nil {
			return storageError(err, table)
		}
	}
	return nil
}
