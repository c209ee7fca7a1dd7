package vectorstore

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakePineconeControl struct {
	describeCalls int
	describeIdx   *pinecone.Index
	describeErr   error

	createReq *pinecone.CreateServerlessIndexRequest
	createErr error
}

func (f *fakePineconeControl) DescribeIndex(_ context.Context, _ string) (*pinecone.Index, error) {
	f.describeCalls++
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.describeIdx, nil
}

func (f *fakePineconeControl) CreateServerlessIndex(_ context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error) {
	f.createReq = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &pinecone.Index{Name: in.Name}, nil
}

type fakePineconeIndex struct {
	upserted []*pinecone.Vector
	queryReq *pinecone.QueryByVectorValuesRequest
	queryOut *pinecone.QueryVectorsResponse
	err      error
	closed   bool
}

func (f *fakePineconeIndex) UpsertVectors(_ context.Context, in []*pinecone.Vector) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.upserted = append(f.upserted, in...)
	return uint32(len(in)), nil
}

func (f *fakePineconeIndex) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.queryReq = in
	if f.err != nil {
		return nil, f.err
	}
	return f.queryOut, nil
}

func (f *fakePineconeIndex) Close() error {
	f.closed = true
	return nil
}

func newFakePineconeStore(t *testing.T, cfg PineconeConfig, control *fakePineconeControl, idx *fakePineconeIndex) (*PineconeStore, *[]string) {
	t.Helper()
	var hosts []string
	store, err := newPineconeStore(cfg, control, func(host string) (pineconeIndex, error) {
		hosts = append(hosts, host)
		return idx, nil
	})
	require.NoError(t, err)
	return store, &hosts
}

func textMetadata(t *testing.T, text string) *pinecone.Metadata {
	t.Helper()
	m, err := structpb.NewStruct(map[string]any{MetadataTextKey: text})
	require.NoError(t, err)
	return m
}

func TestPineconeQueryResolvesHostAndParsesMatches(t *testing.T) {
	control := &fakePineconeControl{describeIdx: &pinecone.Index{Name: "salesforce-metadata", Host: "https://idx-abc.svc.pinecone.io/"}}
	idx := &fakePineconeIndex{queryOut: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "Lead-summary", Metadata: textMetadata(t, "The Salesforce object 'Lead' has a total of 3 fields.")}, Score: 0.92},
		{Vector: &pinecone.Vector{Id: "Lead-Email", Metadata: textMetadata(t, "Email field")}, Score: 0.81},
		{Vector: &pinecone.Vector{Id: "orphan"}, Score: 0.5},
		nil,
	}}}
	store, hosts := newFakePineconeStore(t, PineconeConfig{IndexName: "salesforce-metadata"}, control, idx)

	for i := 0; i < 2; i++ {
		matches, err := store.Query(context.Background(), []float32{0.1, 0.2}, 0)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "Lead-summary", matches[0].ID)
		assert.Equal(t, float32(0.92), matches[0].Score)
		assert.Equal(t, "Email field", matches[1].Text)
		assert.Empty(t, matches[2].Text)
	}

	assert.Equal(t, 1, control.describeCalls, "host lookup should be cached")
	assert.Equal(t, []string{"idx-abc.svc.pinecone.io"}, *hosts)
	require.NotNil(t, idx.queryReq)
	assert.Equal(t, uint32(5), idx.queryReq.TopK)
	assert.True(t, idx.queryReq.IncludeMetadata)
	assert.Equal(t, []float32{0.1, 0.2}, idx.queryReq.Vector)
}

func TestPineconeQueryUsesConfiguredHost(t *testing.T) {
	control := &fakePineconeControl{}
	idx := &fakePineconeIndex{queryOut: &pinecone.QueryVectorsResponse{}}
	store, hosts := newFakePineconeStore(t, PineconeConfig{IndexHost: "https://idx-xyz.svc.pinecone.io"}, control, idx)

	matches, err := store.Query(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Zero(t, control.describeCalls)
	assert.Equal(t, []string{"idx-xyz.svc.pinecone.io"}, *hosts)
}

func TestPineconeQueryErrors(t *testing.T) {
	t.Run("empty vector", func(t *testing.T) {
		store, _ := newFakePineconeStore(t, PineconeConfig{IndexHost: "h"}, &fakePineconeControl{}, &fakePineconeIndex{})
		_, err := store.Query(context.Background(), nil, 5)
		assert.ErrorIs(t, err, ErrEmptyVector)
	})

	t.Run("index without host", func(t *testing.T) {
		control := &fakePineconeControl{describeIdx: &pinecone.Index{Name: "salesforce-metadata"}}
		store, _ := newFakePineconeStore(t, PineconeConfig{IndexName: "salesforce-metadata"}, control, &fakePineconeIndex{})
		_, err := store.Query(context.Background(), []float32{1}, 5)
		assert.ErrorContains(t, err, "has no host yet")
	})

	t.Run("query failure", func(t *testing.T) {
		boom := errors.New("unavailable")
		store, _ := newFakePineconeStore(t, PineconeConfig{IndexHost: "h"}, &fakePineconeControl{}, &fakePineconeIndex{err: boom})
		_, err := store.Query(context.Background(), []float32{1}, 5)
		assert.ErrorIs(t, err, boom)
	})
}

func TestPineconeUpsertSendsTextMetadata(t *testing.T) {
	idx := &fakePineconeIndex{}
	store, _ := newFakePineconeStore(t, PineconeConfig{IndexHost: "h"}, &fakePineconeControl{}, idx)

	n, err := store.Upsert(context.Background(), []Vector{
		{ID: "Lead-summary", Values: []float32{1, 0}, Text: "Lead summary"},
		{ID: "Lead-Email", Values: []float32{0, 1}, Text: "Email field"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, idx.upserted, 2)
	assert.Equal(t, "Lead-summary", idx.upserted[0].Id)
	assert.Equal(t, []float32{1, 0}, idx.upserted[0].Values)
	assert.Equal(t, "Email field", idx.upserted[1].Metadata.GetFields()[MetadataTextKey].GetStringValue())
}

func TestPineconeUpsertValidation(t *testing.T) {
	idx := &fakePineconeIndex{}
	store, hosts := newFakePineconeStore(t, PineconeConfig{IndexHost: "h"}, &fakePineconeControl{}, idx)

	n, err := store.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.Upsert(context.Background(), []Vector{{Values: []float32{1}}})
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Empty(t, *hosts, "invalid batches should not open a connection")
}

func TestPineconeEnsureIndex(t *testing.T) {
	notFound := &pinecone.PineconeError{Code: http.StatusNotFound, Msg: errors.New("index not found")}
	conflict := &pinecone.PineconeError{Code: http.StatusConflict, Msg: errors.New("already exists")}

	tests := []struct {
		name        string
		describeErr error
		createErr   error
		wantCreated bool
		wantCreate  bool
		wantErr     bool
	}{
		{name: "exists"},
		{name: "missing", describeErr: notFound, wantCreated: true, wantCreate: true},
		{name: "race", describeErr: notFound, createErr: conflict, wantCreate: true},
		{name: "describe failure", describeErr: errors.New("unauthorized"), wantErr: true},
		{name: "create failure", describeErr: notFound, createErr: errors.New("quota"), wantCreate: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			control := &fakePineconeControl{
				describeIdx: &pinecone.Index{Name: "salesforce-metadata"},
				describeErr: tt.describeErr,
				createErr:   tt.createErr,
			}
			store, _ := newFakePineconeStore(t, PineconeConfig{IndexName: "salesforce-metadata", Cloud: "gcp", Region: "us-central1"}, control, &fakePineconeIndex{})

			got, err := store.EnsureIndex(context.Background(), IndexSpec{Dimension: 768})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCreated, got)
			assert.Equal(t, tt.wantCreate, control.createReq != nil)
			if control.createReq != nil {
				assert.Equal(t, "salesforce-metadata", control.createReq.Name)
				assert.Equal(t, int32(768), control.createReq.Dimension)
				assert.Equal(t, pinecone.Cosine, control.createReq.Metric)
				assert.Equal(t, pinecone.Cloud("gcp"), control.createReq.Cloud)
				assert.Equal(t, "us-central1", control.createReq.Region)
			}
		})
	}
}

func TestPineconeEnsureIndexRequiresDimension(t *testing.T) {
	store, _ := newFakePineconeStore(t, PineconeConfig{IndexName: "x"}, &fakePineconeControl{}, &fakePineconeIndex{})
	_, err := store.EnsureIndex(context.Background(), IndexSpec{})
	assert.Error(t, err)
}

func TestPineconeClose(t *testing.T) {
	idx := &fakePineconeIndex{queryOut: &pinecone.QueryVectorsResponse{}}
	store, _ := newFakePineconeStore(t, PineconeConfig{IndexHost: "h"}, &fakePineconeControl{}, idx)

	require.NoError(t, store.Close())
	assert.False(t, idx.closed)

	_, err := store.Query(context.Background(), []float32{1}, 1)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.True(t, idx.closed)
}

func TestNewPineconeStoreValidation(t *testing.T) {
	_, err := NewPineconeStore(PineconeConfig{IndexName: "x"})
	assert.Error(t, err)
	_, err = NewPineconeStore(PineconeConfig{APIKey: "k"})
	assert.Error(t, err)

	store, err := NewPineconeStore(PineconeConfig{APIKey: "k", IndexName: "salesforce-metadata"})
	require.NoError(t, err)
	assert.Equal(t, "aws", store.cfg.Cloud)
	assert.Equal(t, "us-east-1", store.cfg.Region)
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "idx-abc.svc.pinecone.io", normalizeHost("https://idx-abc.svc.pinecone.io/"))
	assert.Equal(t, "localhost:5080", normalizeHost("http://localhost:5080"))
	assert.Equal(t, "idx-abc.svc.pinecone.io", normalizeHost(" idx-abc.svc.pinecone.io "))
	assert.Empty(t, normalizeHost("  "))
}
