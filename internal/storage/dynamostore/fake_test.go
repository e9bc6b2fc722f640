package dynamostore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeDynamo is an in-process stand-in for DynamoDB that understands the
// condition expressions issued by this package.
type fakeDynamo struct {
	mu      sync.Mutex
	tables  map[string]map[string]item // table -> partition key -> item
	keys    map[string]string          // table -> partition key attribute
	failAll error

	// indexLag makes Query see nothing, the way a global secondary index
	// looks before it has caught up with a fresh write.
	indexLag bool
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		tables: make(map[string]map[string]item),
		keys:   make(map[string]string),
	}
}

func (f *fakeDynamo) table(name *string) (map[string]item, string, error) {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, "", &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return t, f.keys[aws.ToString(name)], nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}
	f.tables[name] = make(map[string]item)
	f.keys[name] = aws.ToString(in.KeySchema[0].AttributeName)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll != nil {
		return nil, f.failAll
	}
	if _, _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll != nil {
		return nil, f.failAll
	}
	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: t[stringAttr(in.Key[key])]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll != nil {
		return nil, f.failAll
	}
	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}

	pk := stringAttr(in.Item[key])
	existing := t[pk]
	if in.ConditionExpression != nil && !evalCondition(aws.ToString(in.ConditionExpression), existing, in.ExpressionAttributeNames, in.ExpressionAttributeValues) {
		ccf := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		if in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
			ccf.Item = existing
		}
		return nil, ccf
	}

	t[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll != nil {
		return nil, f.failAll
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, ti := range in.TransactItems {
		put := ti.Put
		if put == nil {
			return nil, fmt.Errorf("fake: only Put is supported in transactions")
		}
		t, key, err := f.table(put.TableName)
		if err != nil {
			return nil, err
		}
		reasons[i].Code = aws.String("None")
		existing := t[stringAttr(put.Item[key])]
		if put.ConditionExpression != nil && !evalCondition(aws.ToString(put.ConditionExpression), existing, put.ExpressionAttributeNames, put.ExpressionAttributeValues) {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		t, key, _ := f.table(ti.Put.TableName)
		t[stringAttr(ti.Put.Item[key])] = ti.Put.Item
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAll != nil {
		return nil, f.failAll
	}
	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	if aws.ToString(in.IndexName) != UserIDIndex {
		return nil, fmt.Errorf("fake: unsupported index %q", aws.ToString(in.IndexName))
	}

	if f.indexLag {
		return &dynamodb.QueryOutput{}, nil
	}

	want := stringAttr(in.ExpressionAttributeValues[":id"])
	var out []item
	for pk, it := range t {
		if stringAttr(it["id"]) == want {
			out = append(out, item{
				key:  &types.AttributeValueMemberS{Value: pk},
				"id": it["id"],
			})
		}
	}
	return &dynamodb.QueryOutput{Items: out, Count: int32(len(out))}, nil
}

func evalCondition(expr string, existing item, names map[string]string, values map[string]types.AttributeValue) bool {
	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		if arg, ok := strings.CutPrefix(clause, "attribute_not_exists("); ok {
			attr := names[strings.TrimSuffix(arg, ")")]
			if _, present := existing[attr]; present {
				return false
			}
			continue
		}

		lhs, rhs, ok := strings.Cut(clause, " = ")
		if !ok || existing == nil {
			return false
		}
		if scalar(existing[names[lhs]]) != scalar(values[rhs]) {
			return false
		}
	}
	return true
}

func stringAttr(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func scalar(v types.AttributeValue) string {
	switch x := v.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + x.Value
	case *types.AttributeValueMemberN:
		return "N:" + x.Value
	}
	return "?"
}
