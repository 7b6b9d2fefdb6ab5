package s3

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/rstar/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDDB is an in-memory DynamoDB table keyed by (base_uri, version).
type memDDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	// race, when set, commits a competing version before the next PutItem.
	race func(m *memDDB)
}

func newMemDDB() *memDDB {
	return &memDDB{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	return item["base_uri"].(*types.AttributeValueMemberS).Value + ":" + item["version"].(*types.AttributeValueMemberN).Value
}

func (m *memDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.race != nil {
		race := m.race
		m.race = nil
		race(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := itemKey(in.Item)
	if aws.ToString(in.ConditionExpression) == "attribute_not_exists(version)" {
		if _, ok := m.items[key]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memDDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri := in.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value
	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == uri {
			items = append(items, item)
		}
	}
	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
		// descending
		return int(version(b)) - int(version(a))
	})
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestCommitStore(t *testing.T) {
	ctx := context.Background()
	pages := blobstore.NewMemoryStore()
	ddb := newMemDDB()
	store := NewCommitStore(pages, ddb, "rstar-commits", "s3://bucket/parcels", "HEADER")

	_, err := store.Open(ctx, "HEADER")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "HEADER", []byte("v1")))
	require.NoError(t, store.Put(ctx, "HEADER", []byte("v2")))
	require.NoError(t, store.Put(ctx, "page-0000000001", []byte("node")))

	v, err := store.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	got, err := blobstore.ReadAll(ctx, store, "HEADER")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	// Non-header blobs go to the page store only.
	assert.Equal(t, 1, pages.Len())
	got, err = blobstore.ReadAll(ctx, store, "page-0000000001")
	require.NoError(t, err)
	assert.Equal(t, "node", string(got))
}

func TestCommitStore_ConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	ddb := newMemDDB()
	store := NewCommitStore(blobstore.NewMemoryStore(), ddb, "t", "s3://bucket/p", "HEADER")
	require.NoError(t, store.Put(ctx, "HEADER", []byte("v1")))

	other := NewCommitStore(blobstore.NewMemoryStore(), ddb, "t", "s3://bucket/p", "HEADER")
	ddb.race = func(m *memDDB) {
		require.NoError(t, other.commit(ctx, 2, []byte("theirs")))
	}

	err := store.Put(ctx, "HEADER", []byte("mine"))
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got, err := blobstore.ReadAll(ctx, store, "HEADER")
	require.NoError(t, err)
	assert.Equal(t, "theirs", string(got))
}
