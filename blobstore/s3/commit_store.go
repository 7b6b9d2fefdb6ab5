package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/rstar/blobstore"
)

// ErrConcurrentModification is returned when another writer committed a
// header version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API used by CommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// CommitStore wraps a page blob store and keeps one named blob, the page
// file header, in DynamoDB. Every Put of that blob appends a new version
// with a conditional write.
//
// The table uses base_uri (S) as partition key and version (N) as sort
// key:
//
//	aws dynamodb create-table \
//		--table-name rstar-commits \
//		--attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//		--key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//		--billing-mode PAY_PER_REQUEST
type CommitStore struct {
	blobstore.BlobStore
	ddb       DDBClient
	tableName string
	baseURI   string
	header    string
}

// NewCommitStore routes the blob named header to DynamoDB and everything
// else to inner. baseURI identifies the tree, e.g. "s3://bucket/prefix".
func NewCommitStore(inner blobstore.BlobStore, ddb DDBClient, tableName, baseURI, header string) *CommitStore {
	return &CommitStore{BlobStore: inner, ddb: ddb, tableName: tableName, baseURI: baseURI, header: header}
}

// NewDDBClient loads the default AWS configuration and returns a DynamoDB
// client. Region and Endpoint are honoured; Prefix is ignored.
func NewDDBClient(ctx context.Context, optFns ...func(o *Options)) (*dynamodb.Client, error) {
	opts, cfg, err := loadConfig(ctx, optFns)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// Open serves the header from the latest committed version.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != s.header {
		return s.BlobStore.Open(ctx, name)
	}
	version, data, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &headerBlob{data: data}, nil
}

// Put commits the header as the next version.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != s.header {
		return s.BlobStore.Put(ctx, name, data)
	}
	version, _, err := s.latest(ctx)
	if err != nil {
		return err
	}
	return s.commit(ctx, version+1, data)
}

// Version returns the latest committed header version, 0 if none.
func (s *CommitStore) Version(ctx context.Context) (uint64, error) {
	v, _, err := s.latest(ctx)
	return v, err
}

func (s *CommitStore) latest(ctx context.Context) (uint64, []byte, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, nil, fmt.Errorf("s3: query commits: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, nil, nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil, errors.New("s3: commit item has no version")
	}
	dataAttr, ok := item["header"].(*types.AttributeValueMemberB)
	if !ok {
		return 0, nil, errors.New("s3: commit item has no header")
	}
	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("s3: parse commit version: %w", err)
	}
	return version, dataAttr.Value, nil
}

func (s *CommitStore) commit(ctx context.Context, version uint64, data []byte) error {
	_, err := s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"header":   &types.AttributeValueMemberB{Value: bytes.Clone(data)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit header version %d: %w", version, err)
	}
	return nil
}

type headerBlob struct {
	data []byte
}

func (b *headerBlob) Close() error { return nil }

func (b *headerBlob) Size() int64 { return int64(len(b.data)) }

func (b *headerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
