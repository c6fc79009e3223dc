package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/utils"
)

const (
	// batchGetLimit is the DynamoDB cap on keys per BatchGetItem request.
	batchGetLimit = 100

	// Unprocessed keys are re-requested with a doubling backoff, at most
	// batchGetMaxAttempts calls per chunk.
	batchGetMaxAttempts    = 8
	batchGetInitialBackoff = 50 * time.Millisecond
)

// ErrUnprocessedKeys is returned when DynamoDB keeps handing keys back as
// unprocessed after every retry.
var ErrUnprocessedKeys = errors.New("dynamodb left keys unprocessed")

// DynamoAPI is the subset of *dynamodb.Client the repositories use.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchGetItem(ctx context.Context, in *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NewDynamoDBClient builds a client from the default AWS config chain. A
// non-empty endpoint points it at DynamoDB Local; static dummy credentials are
// used there unless the environment supplies real ones.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			utils.Logger.Infof("DynamoDB endpoint overridden: %s", endpoint)
		}
	}), nil
}

// NewDynamoRepositories wires the three repositories over client.
func NewDynamoRepositories(client DynamoAPI, tables Tables) *Repositories {
	return &Repositories{
		Buildings: &dynamoBuildingRepo{client: client, tables: tables},
		Units:     &dynamoUnitRepo{client: client, tables: tables},
		Residents: &dynamoResidentRepo{client: client, tables: tables, backoff: batchGetInitialBackoff},
		ping: func(ctx context.Context) error {
			_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tables.Units)})
			return err
		},
	}
}

/* ---------- attribute mapping ---------- */

type item = map[string]types.AttributeValue

func keyOf(name, id string) (item, error) {
	return attributevalue.MarshalMap(map[string]string{name: id})
}

// stringSet marshals as an SS attribute, the operand ADD and DELETE expect.
type stringSet []string

func (s stringSet) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberSS{Value: s}, nil
}

func decodeItem[T any](table string, it item) (*T, error) {
	var out T
	if err := attributevalue.UnmarshalMap(it, &out); err != nil {
		return nil, fmt.Errorf("decode %s item: %w", table, err)
	}
	return &out, nil
}

func decodeUnit(table string, it item) (*models.Unit, error) {
	u, err := decodeItem[models.Unit](table, it)
	if err != nil {
		return nil, err
	}
	u.Residents = nonNil(u.Residents)
	return u, nil
}

/* ---------- shared calls ---------- */

func dynamoGet(ctx context.Context, client DynamoAPI, table, keyName, id string) (item, error) {
	key, err := keyOf(keyName, id)
	if err != nil {
		return nil, err
	}
	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

func dynamoPut(ctx context.Context, client DynamoAPI, table string, record any) error {
	it, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("encode %s item: %w", table, err)
	}
	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(table), Item: it})
	return err
}

func dynamoDelete(ctx context.Context, client DynamoAPI, table, keyName, id string) error {
	key, err := keyOf(keyName, id)
	if err != nil {
		return err
	}
	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	return err
}

/* ---------- buildings ---------- */

type dynamoBuildingRepo struct {
	client DynamoAPI
	tables Tables
}

func (r *dynamoBuildingRepo) List(ctx context.Context) ([]*models.Building, error) {
	out := make([]*models.Building, 0)
	in := &dynamodb.ScanInput{
		TableName:      aws.String(r.tables.Buildings),
		ConsistentRead: aws.Bool(false),
	}
	for {
		page, err := r.client.Scan(ctx, in)
		if err != nil {
			return nil, err
		}
		for _, it := range page.Items {
			b, err := decodeItem[models.Building](r.tables.Buildings, it)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func (r *dynamoBuildingRepo) GetByID(ctx context.Context, id string) (*models.Building, error) {
	it, err := dynamoGet(ctx, r.client, r.tables.Buildings, "building_id", id)
	if err != nil || it == nil {
		return nil, err
	}
	return decodeItem[models.Building](r.tables.Buildings, it)
}

func (r *dynamoBuildingRepo) Create(ctx context.Context, b *models.Building) error {
	return dynamoPut(ctx, r.client, r.tables.Buildings, b)
}

func (r *dynamoBuildingRepo) Delete(ctx context.Context, id string) error {
	return dynamoDelete(ctx, r.client, r.tables.Buildings, "building_id", id)
}

/* ---------- units ---------- */

type dynamoUnitRepo struct {
	client DynamoAPI
	tables Tables
}

func (r *dynamoUnitRepo) ListByBuildingID(ctx context.Context, buildingID string) ([]*models.Unit, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("building_id").Equal(expression.Value(buildingID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	out := make([]*models.Unit, 0)
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tables.Units),
		IndexName:                 aws.String(r.tables.UnitsByBuilding),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	for {
		page, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		for _, it := range page.Items {
			u, err := decodeUnit(r.tables.Units, it)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func (r *dynamoUnitRepo) GetByID(ctx context.Context, id string) (*models.Unit, error) {
	it, err := dynamoGet(ctx, r.client, r.tables.Units, "unit_id", id)
	if err != nil || it == nil {
		return nil, err
	}
	return decodeUnit(r.tables.Units, it)
}

func (r *dynamoUnitRepo) Create(ctx context.Context, u *models.Unit) error {
	return dynamoPut(ctx, r.client, r.tables.Units, u)
}

func (r *dynamoUnitRepo) Delete(ctx context.Context, id string) error {
	return dynamoDelete(ctx, r.client, r.tables.Units, "unit_id", id)
}

func (r *dynamoUnitRepo) AddResident(ctx context.Context, unitID, residentID string, updatedAt int64) error {
	update := expression.Add(expression.Name("residents"), expression.Value(stringSet{residentID})).
		Set(expression.Name("updated_at"), expression.Value(updatedAt))
	return r.updateMembership(ctx, update, unitID)
}

func (r *dynamoUnitRepo) RemoveResident(ctx context.Context, unitID, residentID string, updatedAt int64) error {
	update := expression.Delete(expression.Name("residents"), expression.Value(stringSet{residentID})).
		Set(expression.Name("updated_at"), expression.Value(updatedAt))
	return r.updateMembership(ctx, update, unitID)
}

// updateMembership applies update only if the unit exists.
func (r *dynamoUnitRepo) updateMembership(ctx context.Context, update expression.UpdateBuilder, unitID string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("unit_id"))).
		Build()
	if err != nil {
		return fmt.Errorf("build membership update: %w", err)
	}
	key, err := keyOf("unit_id", unitID)
	if err != nil {
		return err
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tables.Units),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrConditionFailed
	}
	return err
}

/* ---------- residents ---------- */

type dynamoResidentRepo struct {
	client  DynamoAPI
	tables  Tables
	backoff time.Duration
}

func (r *dynamoResidentRepo) GetByID(ctx context.Context, id string) (*models.Resident, error) {
	it, err := dynamoGet(ctx, r.client, r.tables.Residents, "resident_id", id)
	if err != nil || it == nil {
		return nil, err
	}
	return decodeItem[models.Resident](r.tables.Residents, it)
}

// GetMany issues BatchGetItem in chunks of batchGetLimit.
func (r *dynamoResidentRepo) GetMany(ctx context.Context, ids []string) ([]*models.Resident, error) {
	keys := make([]item, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		// BatchGetItem rejects duplicate keys.
		if seen[id] {
			continue
		}
		seen[id] = true
		key, err := keyOf("resident_id", id)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	found := make(map[string]*models.Resident, len(keys))
	for start := 0; start < len(keys); start += batchGetLimit {
		end := min(start+batchGetLimit, len(keys))
		if err := r.getChunk(ctx, keys[start:end], found); err != nil {
			return nil, err
		}
	}
	return orderResidents(ids, found), nil
}

// getChunk reads one chunk of keys into found. Keys handed back as
// unprocessed are asked for again after a doubling backoff, until none remain,
// the attempts run out or ctx is done.
func (r *dynamoResidentRepo) getChunk(ctx context.Context, keys []item, found map[string]*models.Resident) error {
	request := map[string]types.KeysAndAttributes{
		r.tables.Residents: {Keys: keys, ConsistentRead: aws.Bool(true)},
	}
	backoff := r.backoff

	for attempt := 1; ; attempt++ {
		out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return err
		}
		for _, it := range out.Responses[r.tables.Residents] {
			res, err := decodeItem[models.Resident](r.tables.Residents, it)
			if err != nil {
				return err
			}
			found[res.ResidentID] = res
		}

		request = out.UnprocessedKeys
		pending := len(request[r.tables.Residents].Keys)
		if pending == 0 {
			return nil
		}
		if attempt == batchGetMaxAttempts {
			return fmt.Errorf("%w: %d keys after %d attempts", ErrUnprocessedKeys, pending, attempt)
		}

		utils.Logger.WithField("unprocessed", pending).Debugf("BatchGetItem throttled; retrying in %v", backoff)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (r *dynamoResidentRepo) Create(ctx context.Context, res *models.Resident) error {
	return dynamoPut(ctx, r.client, r.tables.Residents, res)
}

func (r *dynamoResidentRepo) Delete(ctx context.Context, id string) error {
	return dynamoDelete(ctx, r.client, r.tables.Residents, "resident_id", id)
}
