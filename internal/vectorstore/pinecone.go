package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// PineconeConfig configures the Pinecone client.
type PineconeConfig struct {
	APIKey    string
	IndexName string
	// IndexHost skips the describe-index lookup when set.
	IndexHost string
	// ControlURL overrides the control plane endpoint.
	ControlURL string
	Cloud      string
	Region     string
	HTTPClient *http.Client
}

// pineconeControl is the control plane surface of *pinecone.Client.
type pineconeControl interface {
	DescribeIndex(ctx context.Context, idxName string) (*pinecone.Index, error)
	CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error)
}

// pineconeIndex is the data plane surface of *pinecone.IndexConnection.
type pineconeIndex interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// PineconeStore reads and writes a Pinecone serverless index.
type PineconeStore struct {
	cfg     PineconeConfig
	control pineconeControl
	connect func(host string) (pineconeIndex, error)

	mu   sync.Mutex
	conn pineconeIndex
}

func NewPineconeStore(cfg PineconeConfig) (*PineconeStore, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("vectorstore: pinecone api key is required")
	}
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:     cfg.APIKey,
		Host:       strings.TrimSpace(cfg.ControlURL),
		RestClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: pinecone client: %w", err)
	}
	connect := func(host string) (pineconeIndex, error) {
		conn, err := client.Index(pinecone.NewIndexConnParams{Host: host})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return newPineconeStore(cfg, client, connect)
}

func newPineconeStore(cfg PineconeConfig, control pineconeControl, connect func(string) (pineconeIndex, error)) (*PineconeStore, error) {
	if strings.TrimSpace(cfg.IndexName) == "" && strings.TrimSpace(cfg.IndexHost) == "" {
		return nil, errors.New("vectorstore: pinecone index name or host is required")
	}
	if cfg.Cloud == "" {
		cfg.Cloud = string(pinecone.Aws)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	return &PineconeStore{cfg: cfg, control: control, connect: connect}, nil
}

func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if topK <= 0 {
		topK = 5
	}
	conn, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: pinecone query: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		matches = append(matches, Match{
			ID:    m.Vector.Id,
			Score: m.Score,
			Text:  m.Vector.Metadata.GetFields()[MetadataTextKey].GetStringValue(),
		})
	}
	return matches, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, vectors []Vector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := validateVectors(vectors); err != nil {
		return 0, err
	}
	conn, err := s.index(ctx)
	if err != nil {
		return 0, err
	}

	batch := make([]*pinecone.Vector, len(vectors))
	for i, v := range vectors {
		metadata, err := structpb.NewStruct(map[string]any{MetadataTextKey: v.Text})
		if err != nil {
			return 0, fmt.Errorf("vectorstore: pinecone metadata for %s: %w", v.ID, err)
		}
		batch[i] = &pinecone.Vector{Id: v.ID, Values: v.Values, Metadata: metadata}
	}

	count, err := conn.UpsertVectors(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("vectorstore: pinecone upsert: %w", err)
	}
	return int(count), nil
}

// EnsureIndex creates the serverless index when it does not exist yet.
func (s *PineconeStore) EnsureIndex(ctx context.Context, spec IndexSpec) (bool, error) {
	if spec.Name == "" {
		spec.Name = s.cfg.IndexName
	}
	if spec.Metric == "" {
		spec.Metric = string(pinecone.Cosine)
	}
	if spec.Dimension <= 0 {
		return false, errors.New("vectorstore: index dimension must be positive")
	}

	if _, err := s.control.DescribeIndex(ctx, spec.Name); err == nil {
		return false, nil
	} else if !isPineconeStatus(err, http.StatusNotFound) {
		return false, fmt.Errorf("vectorstore: describe pinecone index %q: %w", spec.Name, err)
	}

	_, err := s.control.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      spec.Name,
		Dimension: int32(spec.Dimension),
		Metric:    pinecone.IndexMetric(spec.Metric),
		Cloud:     pinecone.Cloud(s.cfg.Cloud),
		Region:    s.cfg.Region,
	})
	if err != nil {
		if isPineconeStatus(err, http.StatusConflict) {
			return false, nil
		}
		return false, fmt.Errorf("vectorstore: create pinecone index %q: %w", spec.Name, err)
	}
	return true, nil
}

// Close releases the data plane connection, if one was opened.
func (s *PineconeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *PineconeStore) index(ctx context.Context) (pineconeIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}

	host := normalizeHost(s.cfg.IndexHost)
	if host == "" {
		idx, err := s.control.DescribeIndex(ctx, s.cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("vectorstore: describe pinecone index %q: %w", s.cfg.IndexName, err)
		}
		host = normalizeHost(idx.Host)
		if host == "" {
			return nil, fmt.Errorf("vectorstore: pinecone index %q has no host yet", s.cfg.IndexName)
		}
	}

	conn, err := s.connect(host)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: connect pinecone index %s: %w", host, err)
	}
	s.conn = conn
	return conn, nil
}

func isPineconeStatus(err error, status int) bool {
	var pcErr *pinecone.PineconeError
	return errors.As(err, &pcErr) && pcErr.Code == status
}

// normalizeHost strips the scheme and trailing slash; the SDK dials bare hosts.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}
