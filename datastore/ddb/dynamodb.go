/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/suparena/entitycache/datastore"
	"github.com/suparena/entitycache/errors"
	"github.com/suparena/entitycache/metrics"
	"github.com/suparena/entitycache/model"
	"github.com/suparena/entitycache/registry"
	"github.com/suparena/entitycache/storagemodels"
)

// Name is the backend name reported to logs and metrics.
const Name = "dynamodb"

// maxTransactItems is the DynamoDB limit of actions per transaction.
const maxTransactItems = 100

// Item types stored in the ItemType attribute.
const (
	itemRecord     = "record"
	itemConnection = "connection"
	itemMeta       = "meta"
)

// API is the subset of the DynamoDB client the data store uses.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *sdk.TransactWriteItemsInput, optFns ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error)
}

// DynamodbDataStore stores the records of one project in a single DynamoDB
// table shared by many projects.
type DynamodbDataStore struct {
	client    API
	tableName string
	project   string
	options   storagemodels.ScanOptions
	logger    zerolog.Logger
}

var _ datastore.DataStore = (*DynamodbDataStore)(nil)

// Option configures a DynamodbDataStore.
type Option func(*DynamodbDataStore)

// WithScanOptions configures paging and retries of reads.
func WithScanOptions(opts ...storagemodels.ScanOption) Option {
	return func(d *DynamodbDataStore) {
		for _, opt := range opts {
			opt(&d.options)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *DynamodbDataStore) {
		d.logger = l
	}
}

func init() {
	RegisterDefaultIndexMaps()
}

// NewDynamoDBClient initializes a DynamoDB client. Empty keys fall back to
// the default credential chain.
func NewDynamoDBClient(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(awsRegion)}
	if awsAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// NewDynamodbDataStore returns the data store of project in tableName.
func NewDynamodbDataStore(client API, tableName, project string, opts ...Option) (*DynamodbDataStore, error) {
	if tableName == "" {
		return nil, errors.NewValidationError("tableName", "must not be empty")
	}
	if project == "" {
		return nil, errors.NewValidationError("project", "must not be empty")
	}
	d := &DynamodbDataStore{
		client:    client,
		tableName: tableName,
		project:   project,
		options:   storagemodels.DefaultScanOptions(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("table", tableName).Str("project", project).Logger()
	return d, nil
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// keySource holds the attributes index map macros may reference.
type keySource struct {
	Project  string
	ID       string
	Category string
	OwnerID  string
	RootID   string
}

// expandMacros expands every template of indexMap with the attributes of
// keysInput. Templates referencing a missing or empty attribute are
// dropped.
func expandMacros(indexMap map[string]string, keysInput any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		complete := true
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			var value string
			switch tv := av[key].(type) {
			case *types.AttributeValueMemberS:
				value = tv.Value
			case *types.AttributeValueMemberN:
				value = tv.Value
			case *types.AttributeValueMemberBOOL:
				value = fmt.Sprintf("%v", tv.Value)
			}
			if value == "" {
				complete = false
			}
			return value
		})
		if complete {
			res[fieldName] = expanded
		}
	}
	return res, nil
}

func (d *DynamodbDataStore) recordKeys(rec *storagemodels.Record) (map[string]string, error) {
	indexMap, ok := registry.GetIndexMap(model.Category(rec.Category))
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNoIndexMap, rec.Category)
	}
	expanded, err := expandMacros(indexMap, keySource{
		Project:  d.project,
		ID:       rec.ID,
		Category: rec.Category,
		OwnerID:  rec.OwnerID,
		RootID:   rec.RootID,
	})
	if err != nil {
		return nil, err
	}
	if _, ok := buildSingleKey(expanded); !ok {
		return nil, fmt.Errorf("index map of %s does not expand to a key", rec.Category)
	}
	return expanded, nil
}

func (d *DynamodbDataStore) entityKey(id string) map[string]types.AttributeValue {
	key := fmt.Sprintf("%s#ENTITY#%s", d.project, id)
	return singleKey(key)
}

func (d *DynamodbDataStore) connectionKey(c storagemodels.Connection) map[string]types.AttributeValue {
	return singleKey(fmt.Sprintf("%s#CONN#%s", d.project, c.Key()))
}

func (d *DynamodbDataStore) metaKey() map[string]types.AttributeValue {
	return singleKey(d.project + "#META")
}

func (d *DynamodbDataStore) diagramPartition(diagramID string) string {
	return fmt.Sprintf("%s#DIAGRAM#%s", d.project, diagramID)
}

func singleKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: key},
		"SK": &types.AttributeValueMemberS{Value: key},
	}
}

// buildSingleKey returns the primary key when PK and SK are present and
// identical, the layout every item of the table uses.
func buildSingleKey(expanded map[string]string) (map[string]types.AttributeValue, bool) {
	pk, hasPK := expanded["PK"]
	sk, hasSK := expanded["SK"]
	if hasPK && hasSK && pk != "" && pk == sk {
		return singleKey(pk), true
	}
	return nil, false
}

func (d *DynamodbDataStore) recordItem(rec *storagemodels.Record) (map[string]types.AttributeValue, error) {
	keys, err := d.recordKeys(rec)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}
	for k, v := range keys {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	av["ItemType"] = &types.AttributeValueMemberS{Value: itemRecord}
	return av, nil
}

func (d *DynamodbDataStore) connectionItem(c storagemodels.Connection) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal connection %s: %w", c.Key(), err)
	}
	for k, v := range d.connectionKey(c) {
		av[k] = v
	}
	av["PK1"] = &types.AttributeValueMemberS{Value: d.diagramPartition(c.DiagramID)}
	av["SK1"] = &types.AttributeValueMemberS{Value: "CONN#" + c.Key()}
	av["ItemType"] = &types.AttributeValueMemberS{Value: itemConnection}
	return av, nil
}

func unmarshalRecord(item map[string]types.AttributeValue) (*storagemodels.Record, error) {
	var rec storagemodels.Record
	err := attributevalue.UnmarshalMapWithOptions(item, &rec, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

func (d *DynamodbDataStore) Name() string {
	return Name
}

func (d *DynamodbDataStore) Exists(ctx context.Context) (bool, error) {
	_, err := d.GetMeta(ctx)
	if errors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (d *DynamodbDataStore) GetMeta(ctx context.Context) (*storagemodels.Meta, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            d.metaKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError("project", d.project)
	}
	var meta storagemodels.Meta
	if err := attributevalue.UnmarshalMap(out.Item, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
	}
	return &meta, nil
}

// GetOne retrieves a single record by identity.
func (d *DynamodbDataStore) GetOne(ctx context.Context, id string) (*storagemodels.Record, error) {
	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       d.entityKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError("record", id)
	}
	return unmarshalRecord(out.Item)
}

// Apply writes the batch with TransactWriteItems. Batches of more than 100
// actions are split into consecutive transactions, deletes first.
func (d *DynamodbDataStore) Apply(ctx context.Context, batch *storagemodels.Batch) error {
	var actions []types.TransactWriteItem
	for _, rec := range batch.Deletes {
		actions = append(actions, types.TransactWriteItem{Delete: &types.Delete{
			TableName: &d.tableName,
			Key:       d.entityKey(rec.ID),
		}})
	}
	replaced := make(map[string]bool, len(batch.PutConnections))
	for _, c := range batch.PutConnections {
		replaced[c.Key()] = true
	}
	for _, c := range batch.DeleteConnections {
		if replaced[c.Key()] {
			continue
		}
		actions = append(actions, types.TransactWriteItem{Delete: &types.Delete{
			TableName: &d.tableName,
			Key:       d.connectionKey(c),
		}})
	}
	for _, rec := range batch.Puts {
		if rec.ID == "" {
			return errors.NewValidationError("ID", "record without identity")
		}
		item, err := d.recordItem(rec)
		if err != nil {
			return err
		}
		actions = append(actions, types.TransactWriteItem{Put: &types.Put{TableName: &d.tableName, Item: item}})
	}
	for _, c := range batch.PutConnections {
		item, err := d.connectionItem(c)
		if err != nil {
			return err
		}
		actions = append(actions, types.TransactWriteItem{Put: &types.Put{TableName: &d.tableName, Item: item}})
	}
	if batch.Meta != nil {
		item, err := attributevalue.MarshalMap(batch.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal meta: %w", err)
		}
		for k, v := range d.metaKey() {
			item[k] = v
		}
		item["ItemType"] = &types.AttributeValueMemberS{Value: itemMeta}
		actions = append(actions, types.TransactWriteItem{Put: &types.Put{TableName: &d.tableName, Item: item}})
	}
	if err := d.transact(ctx, actions); err != nil {
		return err
	}
	metrics.BatchRecords.WithLabelValues(Name).Observe(float64(len(actions)))
	return nil
}

func (d *DynamodbDataStore) transact(ctx context.Context, actions []types.TransactWriteItem) error {
	for start := 0; start < len(actions); start += maxTransactItems {
		end := start + maxTransactItems
		if end > len(actions) {
			end = len(actions)
		}
		_, err := d.client.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{
			TransactItems: actions[start:end],
		})
		if err != nil {
			return fmt.Errorf("TransactWriteItems failed: %w", err)
		}
		d.logger.Debug().Int("actions", end-start).Msg("transaction written")
	}
	return nil
}

// Erase deletes every item of the project.
func (d *DynamodbDataStore) Erase(ctx context.Context) error {
	prefix := d.project + "#"
	input := &sdk.ScanInput{
		TableName:                &d.tableName,
		FilterExpression:         aws.String("begins_with(PK, :prefix)"),
		ProjectionExpression:     aws.String("PK, SK"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
	}
	var actions []types.TransactWriteItem
	err := d.scanPages(ctx, input, func(items []map[string]types.AttributeValue) error {
		for _, item := range items {
			actions = append(actions, types.TransactWriteItem{Delete: &types.Delete{
				TableName: &d.tableName,
				Key:       map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]},
			}})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.transact(ctx, actions)
}

func (d *DynamodbDataStore) Close() error {
	return nil
}
